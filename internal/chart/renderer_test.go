package chart

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gochart "github.com/wcharczuk/go-chart/v2"
)

func hourly(values ...float64) []models.Sample {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]models.Sample, len(values))
	for i, v := range values {
		samples[i] = models.Sample{Time: t0.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return samples
}

func TestGoChart_RenderPNG(t *testing.T) {
	r, err := NewGoChart("")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, hourly(1, 3, 2, 5, 4)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)

	w, h := PixelSize()
	assert.Equal(t, 3600, w)
	assert.Equal(t, 1800, h)
	assert.Equal(t, w, img.Bounds().Dx())
	assert.Equal(t, h, img.Bounds().Dy())
}

func TestGoChart_BuildUsesFixedParameters(t *testing.T) {
	r, err := NewGoChart("")
	require.NoError(t, err)

	samples := hourly(5, 1, 3)
	ch := r.build(samples)

	assert.Equal(t, Title, ch.Title)
	assert.Equal(t, XAxisLabel, ch.XAxis.Name)
	assert.Equal(t, YAxisLabel, ch.YAxis.Name)
	assert.Equal(t, float64(DPI), ch.DPI)
	assert.Equal(t, GridAlpha, ch.XAxis.GridMajorStyle.StrokeColor.A)
	require.Len(t, ch.Series, 1)

	ts, ok := ch.Series[0].(gochart.TimeSeries)
	require.True(t, ok)
	assert.InDelta(t, 8.33, ts.Style.StrokeWidth, 0.01, "2pt at 300 DPI")
	assert.Len(t, ts.XValues, len(samples))
	assert.Equal(t, []float64{5, 1, 3}, ts.YValues, "values must keep the decoder order")
}

// renderWithin fails the test if Render does not return in time.
func renderWithin(t *testing.T, r *GoChart, samples []models.Sample) []byte {
	t.Helper()
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		err := r.Render(&buf, samples)
		done <- result{buf.Bytes(), err}
	}()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		img, err := png.Decode(bytes.NewReader(res.data))
		require.NoError(t, err)
		w, h := PixelSize()
		assert.Equal(t, w, img.Bounds().Dx())
		assert.Equal(t, h, img.Bounds().Dy())
		return res.data
	case <-time.After(30 * time.Second):
		t.Fatal("Render did not return")
		return nil
	}
}

func TestGoChart_DegenerateSeries(t *testing.T) {
	r, err := NewGoChart("")
	require.NoError(t, err)

	nan := math.NaN()
	cases := []struct {
		name    string
		samples []models.Sample
	}{
		{"single sample", hourly(7)},
		{"constant values", hourly(2, 2, 2)},
		{"empty", nil},
		{"nan gap", hourly(1, nan, 3, 4)},
		{"all nan", hourly(nan, nan)},
		{"positive infinity", hourly(1, math.Inf(1), 3, 2)},
		{"negative infinity", hourly(math.Inf(-1), 1, 2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			renderWithin(t, r, tc.samples)
		})
	}
}

func TestGoChart_NonFiniteValuesSplitTheLine(t *testing.T) {
	r, err := NewGoChart("")
	require.NoError(t, err)

	ch := r.build(hourly(1, 2, math.NaN(), 3, 4, math.Inf(1), 5))
	require.Len(t, ch.Series, 2, "the isolated trailing sample has no line")

	first := ch.Series[0].(gochart.TimeSeries)
	second := ch.Series[1].(gochart.TimeSeries)
	assert.Equal(t, []float64{1, 2}, first.YValues)
	assert.Equal(t, []float64{3, 4}, second.YValues)

	lo, hi := ch.YAxis.Range.GetMin(), ch.YAxis.Range.GetMax()
	assert.InDelta(t, 0.8, lo, 1e-9)
	assert.InDelta(t, 5.2, hi, 1e-9)
}

func TestGoChart_EmptyAxes(t *testing.T) {
	r, err := NewGoChart("")
	require.NoError(t, err)

	ch := r.build(nil)
	require.Len(t, ch.Series, 1)
	_, isTime := ch.Series[0].(gochart.TimeSeries)
	assert.False(t, isTime, "placeholder only")
	assert.Equal(t, 0.0, ch.YAxis.Range.GetMin())
	assert.Equal(t, 1.0, ch.YAxis.Range.GetMax())
	assert.Less(t, ch.XAxis.Range.GetMin(), ch.XAxis.Range.GetMax())
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange(hourly(0, 10))
	assert.InDelta(t, -0.5, lo, 1e-9)
	assert.InDelta(t, 10.5, hi, 1e-9)

	lo, hi = valueRange(hourly(4))
	assert.Equal(t, 3.0, lo)
	assert.Equal(t, 5.0, hi)

	lo, hi = valueRange(hourly(math.NaN(), math.Inf(-1)))
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestNewGoChart_FontErrors(t *testing.T) {
	_, err := NewGoChart(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0644))
	_, err = NewGoChart(bad)
	assert.Error(t, err)
}
