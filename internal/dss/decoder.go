// Package dss wraps the external DSS reader that decodes time series out of DSS files.
package dss

import (
	"context"
	"errors"
	"fmt"

	"github.com/dss-visualizer/backend/internal/models"
)

var (
	// ErrDecode wraps any failure reported by the external reader.
	ErrDecode = errors.New("dss decode failed")
	// ErrShapeMismatch means the reader returned time and value sequences of different lengths.
	ErrShapeMismatch = errors.New("dss series shape mismatch")
)

// Decoder reads a single record out of a DSS file.
type Decoder interface {
	Read(ctx context.Context, filePath, recordPath string) (*models.Series, error)
}

// Pair zips the decoder output into ordered samples. Order is preserved exactly as returned;
// sequences of unequal length are rejected rather than truncated. An empty record pairs to
// zero samples.
func Pair(s *models.Series) ([]models.Sample, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: no series returned", ErrDecode)
	}
	if len(s.Times) != len(s.Values) {
		return nil, fmt.Errorf("%w: %d timestamps vs %d values", ErrShapeMismatch, len(s.Times), len(s.Values))
	}

	samples := make([]models.Sample, len(s.Times))
	for i := range s.Times {
		samples[i] = models.Sample{Time: s.Times[i], Value: s.Values[i]}
	}
	return samples, nil
}
