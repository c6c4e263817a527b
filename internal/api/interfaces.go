// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/dss-visualizer/backend/internal/convert"
	"github.com/dss-visualizer/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// UploadHandler accepts DSS uploads and runs the conversion
type UploadHandler interface {
	HandleUpload(c echo.Context) error
}

// DownloadHandler streams rendered artifacts
type DownloadHandler interface {
	HandleDownload(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// Converter is the conversion stage as seen by the upload handler.
// This allows mocking in tests
type Converter interface {
	Convert(ctx context.Context, req models.ConversionRequest) (*convert.Result, error)
}

var _ Converter = (*convert.Converter)(nil)
