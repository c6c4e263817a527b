// handlers_download.go - Delivery handler for rendered charts
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// PublicFileName is the attachment name every artifact is served under.
const PublicFileName = "dss_result.png"

// DownloadURL returns the retrieval address of an artifact.
func DownloadURL(name string) string {
	return "/download/" + name
}

// DownloadHandlerImpl implements the DownloadHandler interface
type DownloadHandlerImpl struct {
	exports storage.Store
	log     *log.Logger
}

// NewDownloadHandler creates a new download handler instance
func NewDownloadHandler(exports storage.Store, logger *log.Logger) DownloadHandler {
	return &DownloadHandlerImpl{
		exports: exports,
		log:     logger,
	}
}

// HandleDownload streams the named artifact as dss_result.png
func (h *DownloadHandlerImpl) HandleDownload(c echo.Context) error {
	name := c.Param("filename")

	rc, info, err := h.exports.Open(name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrInvalidName) {
			h.log.Warnf("opening artifact %q failed: %v", name, err)
		}
		return NewNotFoundError(MsgDownloadFailed + err.Error())
	}
	defer rc.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", PublicFileName))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	return c.Stream(http.StatusOK, "image/png", rc)
}
