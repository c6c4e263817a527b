// handlers_health.go - Readiness of the decoder and the two stores
package api

import (
	"net/http"
	"os/exec"

	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/labstack/echo/v4"
)

var lookPath = exec.LookPath

// Health check results.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version       string
	decoderBinary string
	uploads       storage.Store
	exports       storage.Store
}

// NewHealthHandler creates a new health handler. An empty decoderBinary skips the decoder check.
func NewHealthHandler(version, decoderBinary string, uploads, exports storage.Store) HealthHandler {
	return &HealthHandlerImpl{
		version:       version,
		decoderBinary: decoderBinary,
		uploads:       uploads,
		exports:       exports,
	}
}

// HandleHealth reports whether conversions can run: the reader binary resolves and both
// stores accept files. Any failed check answers 503.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := HealthResponse{Status: HealthOK, Version: h.version, Checks: map[string]string{}}
	record := func(name string, err error) {
		if err != nil {
			resp.Status = HealthDegraded
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = HealthOK
	}

	if h.decoderBinary != "" {
		_, err := lookPath(h.decoderBinary)
		record("decoder", err)
	}
	if h.uploads != nil {
		record("uploads", h.uploads.Check())
	}
	if h.exports != nil {
		record("exports", h.exports.Check())
	}

	code := http.StatusOK
	if resp.Status != HealthOK {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
