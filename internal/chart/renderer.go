// Package chart renders decoded DSS series as PNG line charts.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Fixed presentation parameters of the exported chart.
const (
	Title      = "DSS数据可视化结果"
	XAxisLabel = "时间"
	YAxisLabel = "数值"

	DPI           = 300
	WidthInches   = 12
	HeightInches  = 6
	TitleFontSize = 14.0
	LabelFontSize = 12.0
	LineColorHex  = "2E86AB"

	// LineWidth and GridWidth are in points; go-chart strokes in pixels.
	LineWidth = 2.0
	GridWidth = 0.8

	// GridAlpha is the grid opacity, 30% of 255.
	GridAlpha uint8 = 77

	timeLabelFormat = "2006-01-02 15:04"
)

// emptyRangeStart anchors the x axis when there is nothing to plot.
var emptyRangeStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// points converts a width in points to pixels at DPI.
func points(pt float64) float64 {
	return pt * DPI / 72
}

// Renderer draws a single-series line chart.
type Renderer interface {
	Render(w io.Writer, samples []models.Sample) error
}

// GoChart renders with go-chart using the fixed presentation parameters.
type GoChart struct {
	font *truetype.Font
}

// NewGoChart returns a renderer. fontPath is optional; without a CJK capable font the
// Chinese labels fall back to go-chart's default font.
func NewGoChart(fontPath string) (*GoChart, error) {
	r := &GoChart{}
	if fontPath == "" {
		return r, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading chart font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing chart font: %w", err)
	}
	r.font = f
	return r, nil
}

// PixelSize returns the output image size in pixels.
func PixelSize() (width, height int) {
	return WidthInches * DPI, HeightInches * DPI
}

// Render writes a PNG of the samples to w, in the order given. Non-finite values are
// drawn as gaps and an empty series yields empty axes.
func (r *GoChart) Render(w io.Writer, samples []models.Sample) error {
	if err := r.build(samples).Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (r *GoChart) build(samples []models.Sample) *gochart.Chart {
	lineStyle := gochart.Style{
		StrokeColor: drawing.ColorFromHex(LineColorHex),
		StrokeWidth: points(LineWidth),
	}
	gridStyle := gochart.Style{
		StrokeColor: drawing.ColorBlack.WithAlpha(GridAlpha),
		StrokeWidth: points(GridWidth),
	}
	labelStyle := gochart.Style{FontSize: LabelFontSize}

	xMin, xMax := timeRange(samples)
	yMin, yMax := valueRange(samples)

	var series []gochart.Series
	for _, seg := range segments(samples) {
		series = append(series, seg.timeSeries(lineStyle))
	}
	if len(series) == 0 {
		// go-chart needs one visible series to draw the axes.
		series = append(series, gochart.ContinuousSeries{
			Name:    "empty",
			XValues: []float64{xMin, xMax},
			YValues: []float64{yMin, yMin},
			Style:   gochart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
		})
	}

	width, height := PixelSize()
	return &gochart.Chart{
		Title:      Title,
		TitleStyle: gochart.Style{FontSize: TitleFontSize},
		Width:      width,
		Height:     height,
		DPI:        DPI,
		Font:       r.font,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 40, Bottom: 20}},
		XAxis: gochart.XAxis{
			Name:           XAxisLabel,
			NameStyle:      labelStyle,
			ValueFormatter: gochart.TimeValueFormatterWithFormat(timeLabelFormat),
			Range:          &gochart.ContinuousRange{Min: xMin, Max: xMax},
			GridMajorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           YAxisLabel,
			NameStyle:      labelStyle,
			Range:          &gochart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: gridStyle,
		},
		Series: series,
	}
}

// segment is a run of consecutive finite samples.
type segment struct {
	xs []time.Time
	ys []float64
}

func (s segment) timeSeries(style gochart.Style) gochart.TimeSeries {
	return gochart.TimeSeries{Name: "value", XValues: s.xs, YValues: s.ys, Style: style}
}

// segments splits samples at NaN and infinite values. Runs shorter than two samples
// have no line to draw and are dropped.
func segments(samples []models.Sample) []segment {
	var out []segment
	var cur segment
	flush := func() {
		if len(cur.xs) >= 2 {
			out = append(out, cur)
		}
		cur = segment{}
	}
	for _, s := range samples {
		if !finite(s.Value) {
			flush()
			continue
		}
		cur.xs = append(cur.xs, s.Time)
		cur.ys = append(cur.ys, s.Value)
	}
	flush()
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// timeRange returns the x extent in go-chart's float time domain. A single instant is
// widened by one hour on each side since go-chart refuses zero-width ranges.
func timeRange(samples []models.Sample) (float64, float64) {
	if len(samples) == 0 {
		return gochart.TimeToFloat64(emptyRangeStart), gochart.TimeToFloat64(emptyRangeStart.Add(24 * time.Hour))
	}
	lo, hi := samples[0].Time, samples[0].Time
	for _, s := range samples[1:] {
		if s.Time.Before(lo) {
			lo = s.Time
		}
		if s.Time.After(hi) {
			hi = s.Time
		}
	}
	if lo.Equal(hi) {
		lo, hi = lo.Add(-time.Hour), hi.Add(time.Hour)
	}
	return gochart.TimeToFloat64(lo), gochart.TimeToFloat64(hi)
}

// valueRange returns the extent of the finite values with 5% headroom. Constant series
// get a unit band and series without finite values get [0, 1].
func valueRange(samples []models.Sample) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		if !finite(s.Value) {
			continue
		}
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}
	switch {
	case lo > hi:
		return 0, 1
	case lo == hi:
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

var _ Renderer = (*GoChart)(nil)
