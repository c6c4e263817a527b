package dss

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

var commandContext = exec.CommandContext

// Output formats understood from the reader's stdout.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Option configures the CLI decoder.
type Option func(*CLI)

// WithBinary overrides the default reader binary.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithFormat selects the reader's output encoding.
func WithFormat(format string) Option {
	return func(c *CLI) {
		if format != "" {
			c.format = strings.ToLower(format)
		}
	}
}

// WithTimeout bounds each Read call. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) {
		c.timeout = d
	}
}

// CLI invokes the dss-reader command line tool:
//
//	dss-reader read --file <path> --record <record path> --format json|msgpack
//
// On success the tool writes the series to stdout. On failure it exits non-zero and
// writes a human readable message to stderr.
type CLI struct {
	binary  string
	format  string
	timeout time.Duration
}

// NewCLI constructs a CLI decoder using defaults.
func NewCLI(opts ...Option) *CLI {
	c := &CLI{binary: "dss-reader", format: FormatJSON}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// jsonPayload is the JSON output: RFC 3339 timestamps. Missing values are null.
type jsonPayload struct {
	Times  []time.Time `json:"times"`
	Values []*float64  `json:"values"`
}

// msgpackPayload is the msgpack output: Unix millisecond timestamps. Missing values are
// nil or NaN.
type msgpackPayload struct {
	Times  []int64    `msgpack:"times"`
	Values []*float64 `msgpack:"values"`
}

// Read runs the reader for one record and decodes its output.
func (c *CLI) Read(ctx context.Context, filePath, recordPath string) (*models.Series, error) {
	if filePath == "" {
		return nil, errors.New("file path required")
	}
	if recordPath == "" {
		return nil, errors.New("record path required")
	}
	if c.format != FormatJSON && c.format != FormatMsgpack {
		return nil, fmt.Errorf("unsupported reader format %q", c.format)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"read", "--file", filePath, "--record", recordPath, "--format", c.format}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrDecode, msg)
	}

	series, err := c.decode(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reader output: %v", ErrDecode, err)
	}
	series.RecordPath = recordPath
	return series, nil
}

func (c *CLI) decode(data []byte) (*models.Series, error) {
	switch c.format {
	case FormatMsgpack:
		var p msgpackPayload
		if err := msgpack.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		times := make([]time.Time, len(p.Times))
		for i, ms := range p.Times {
			times[i] = time.UnixMilli(ms).UTC()
		}
		return &models.Series{Times: times, Values: values(p.Values)}, nil
	default:
		var p jsonPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &models.Series{Times: p.Times, Values: values(p.Values)}, nil
	}
}

// values maps missing entries to NaN so they plot as gaps.
func values(vs []*float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

var _ Decoder = (*CLI)(nil)
