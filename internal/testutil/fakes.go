// fakes.go - Fake collaborators for conversion and handler tests
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/dss-visualizer/backend/internal/stats"
)

// DecodeCall records one FakeDecoder.Read invocation.
type DecodeCall struct {
	FilePath   string
	RecordPath string
}

// FakeDecoder returns a canned series or error and records every call.
type FakeDecoder struct {
	mu     sync.Mutex
	Series *models.Series
	Err    error
	Calls  []DecodeCall
}

// NewFakeDecoder returns a decoder that yields hourly samples with the given values.
func NewFakeDecoder(values ...float64) *FakeDecoder {
	return &FakeDecoder{Series: HourlySeries(values...)}
}

func (d *FakeDecoder) Read(_ context.Context, filePath, recordPath string) (*models.Series, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, DecodeCall{FilePath: filePath, RecordPath: recordPath})
	if d.Err != nil {
		return nil, d.Err
	}
	// Hand out a copy so callers cannot mutate the canned series.
	s := &models.Series{
		RecordPath: recordPath,
		Times:      append([]time.Time(nil), d.Series.Times...),
		Values:     append([]float64(nil), d.Series.Values...),
	}
	return s, nil
}

// CallCount returns the number of Read calls so far.
func (d *FakeDecoder) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// HourlySeries builds a series starting 2020-01-01T00:00Z with one value per hour.
func HourlySeries(values ...float64) *models.Series {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return &models.Series{Times: times, Values: append([]float64(nil), values...)}
}

// FakeRenderer writes a deterministic text "image" describing the samples.
type FakeRenderer struct {
	mu       sync.Mutex
	Err      error
	Panic    bool
	Rendered [][]models.Sample
}

func (r *FakeRenderer) Render(w io.Writer, samples []models.Sample) error {
	r.mu.Lock()
	r.Rendered = append(r.Rendered, samples)
	r.mu.Unlock()

	if r.Panic {
		panic("renderer exploded")
	}
	if r.Err != nil {
		// Partial output before failing
		io.WriteString(w, "partial")
		return r.Err
	}
	_, err := w.Write(RenderedBytes(samples))
	return err
}

// RenderedBytes is what FakeRenderer writes for samples.
func RenderedBytes(samples []models.Sample) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "FAKEPNG n=%d\n", len(samples))
	for _, s := range samples {
		fmt.Fprintf(&buf, "%d %g\n", s.Time.Unix(), s.Value)
	}
	return buf.Bytes()
}

// LastPointCount returns the sample count of the most recent render.
func (r *FakeRenderer) LastPointCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Rendered) == 0 {
		return -1
	}
	return len(r.Rendered[len(r.Rendered)-1])
}

// FakeSummarizer computes a summary in Go without DuckDB, skipping non-finite values.
type FakeSummarizer struct {
	Err error
}

func (s *FakeSummarizer) Summarize(_ context.Context, samples []models.Sample) (*models.SeriesSummary, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	samples = stats.Finite(samples)
	if len(samples) == 0 {
		return nil, stats.ErrNoValues
	}
	sum := &models.SeriesSummary{
		Count: len(samples),
		Min:   samples[0].Value,
		Max:   samples[0].Value,
		Start: samples[0].Time,
		End:   samples[len(samples)-1].Time,
	}
	var total float64
	for _, smp := range samples {
		total += smp.Value
		if smp.Value < sum.Min {
			sum.Min = smp.Value
		}
		if smp.Value > sum.Max {
			sum.Max = smp.Value
		}
	}
	sum.Mean = total / float64(len(samples))
	return sum, nil
}

// MultipartUpload builds a multipart body. When includeFile is false the file part is omitted.
func MultipartUpload(field, filename string, content []byte, fields map[string]string, includeFile bool) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if includeFile {
		part, _ := writer.CreateFormFile(field, filename)
		part.Write(content)
	}
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}
