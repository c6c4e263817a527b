// routes.go - Route registration helpers
// This file provides a clean way to register all routes
package api

import (
	"io"

	"github.com/dss-visualizer/backend/internal/config"
	"github.com/dss-visualizer/backend/internal/logging"
	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/dss-visualizer/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Uploads   storage.Store
	Exports   storage.Store
	Converter Converter
	Version   string
	Logger    *log.Logger

	// DecoderBinary is checked by the health endpoint when set.
	DecoderBinary string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Upload   UploadHandler
	Download DownloadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard("API")
	}
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.DecoderBinary, deps.Uploads, deps.Exports),
		Upload:   NewUploadHandler(deps.Uploads, deps.Converter, logger),
		Download: NewDownloadHandler(deps.Exports, logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/health", handlers.Health.HandleHealth)

	e.POST("/upload", handlers.Upload.HandleUpload)
	e.GET("/download/:filename", handlers.Download.HandleDownload)
}

// MiddlewareOptions controls the common middleware chain
type MiddlewareOptions struct {
	RequestLogging bool
	AccessLog      io.Writer // nil means stdout
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          log.ERROR,
	}))

	if opts.RequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/api/health"
			},
			Output: opts.AccessLog,
		}))
	}

	// Oversized bodies are rejected before reaching the upload handler
	e.Use(middleware.BodyLimit(config.BodyLimit))
}

// NewServer builds a fully wired Echo instance
func NewServer(deps *Dependencies, opts MiddlewareOptions) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if deps.Logger != nil {
		e.Logger = deps.Logger
	}

	SetupMiddleware(e, opts)
	RegisterRoutes(e, NewHandlers(deps))

	if err := web.RegisterStaticRoutes(e); err != nil {
		return nil, err
	}
	return e, nil
}
