// Package convert implements the conversion stage: decode a DSS record and render it to a PNG artifact.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dss-visualizer/backend/internal/chart"
	"github.com/dss-visualizer/backend/internal/dss"
	"github.com/dss-visualizer/backend/internal/models"
	"github.com/dss-visualizer/backend/internal/stats"
	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/labstack/gommon/log"
)

// ArtifactExt is the extension of rendered artifacts.
const ArtifactExt = "png"

// Result describes a successful conversion.
type Result struct {
	ArtifactName string
	Points       int
	Summary      *models.SeriesSummary
}

// Converter owns the artifacts it writes to the exports store and hands back only their names.
type Converter struct {
	decoder    dss.Decoder
	renderer   chart.Renderer
	exports    storage.Store
	summarizer stats.Summarizer
	log        *log.Logger
}

// New creates a Converter. summarizer may be nil.
func New(decoder dss.Decoder, renderer chart.Renderer, exports storage.Store, summarizer stats.Summarizer, logger *log.Logger) *Converter {
	return &Converter{
		decoder:    decoder,
		renderer:   renderer,
		exports:    exports,
		summarizer: summarizer,
		log:        logger,
	}
}

// Convert decodes req and writes the chart under a freshly generated <uuid>.png name.
// On failure no artifact is left in the exports store.
func (c *Converter) Convert(ctx context.Context, req models.ConversionRequest) (*Result, error) {
	if req.Upload == nil {
		return nil, errors.New("no uploaded file")
	}
	recordPath := models.ResolveRecordPath(req.RecordPath)
	name := storage.NewName("", ArtifactExt)
	start := time.Now()

	pending, err := c.exports.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating artifact: %w", err)
	}

	samples, err := c.WriteChart(ctx, req.Upload.Path, recordPath, pending)
	if err != nil {
		pending.Abort()
		c.log.Warnf("conversion of %s (%s) failed: %v", req.Upload.Name, recordPath, err)
		return nil, err
	}
	if err := pending.Commit(); err != nil {
		return nil, fmt.Errorf("saving artifact: %w", err)
	}

	result := &Result{ArtifactName: name, Points: len(samples)}
	if c.summarizer != nil {
		summary, err := c.summarizer.Summarize(ctx, samples)
		switch {
		case errors.Is(err, stats.ErrNoValues):
			c.log.Debugf("no summary for %s: %v", name, err)
		case err != nil:
			c.log.Warnf("summary for %s unavailable: %v", name, err)
		default:
			result.Summary = summary
		}
	}

	c.log.Infof("converted %s (%s): %d points -> %s in %v",
		req.Upload.Name, recordPath, len(samples), name, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// WriteChart decodes recordPath from filePath and renders the chart to w.
// It returns the plotted samples in decoder order.
func (c *Converter) WriteChart(ctx context.Context, filePath, recordPath string, w io.Writer) ([]models.Sample, error) {
	series, err := c.decoder.Read(ctx, filePath, recordPath)
	if err != nil {
		return nil, err
	}

	samples, err := dss.Pair(series)
	if err != nil {
		return nil, err
	}

	if err := c.render(w, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// render converts renderer panics into errors so a bad series fails only its own request.
func (c *Converter) render(w io.Writer, samples []models.Sample) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render chart: %v", r)
		}
	}()
	return c.renderer.Render(w, samples)
}
