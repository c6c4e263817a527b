// handlers_upload.go - Intake handler: store the upload, then convert it
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// Form field names of POST /upload.
const (
	FileField = "dssFile"
	PathField = "dssPath"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	uploads   storage.Store
	converter Converter
	log       *log.Logger
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(uploads storage.Store, converter Converter, logger *log.Logger) UploadHandler {
	return &UploadHandlerImpl{
		uploads:   uploads,
		converter: converter,
		log:       logger,
	}
}

// HandleUpload accepts a multipart DSS upload, converts it and returns the download URL
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		// The body limit middleware surfaces as a read error while parsing
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return NewBadRequestError(MsgMissingFile)
	}

	files := form.File[FileField]
	if len(files) == 0 {
		// A file input submitted without a selection arrives as a plain value
		if _, ok := form.Value[FileField]; ok {
			return NewBadRequestError(MsgEmptyFilename)
		}
		return NewBadRequestError(MsgMissingFile)
	}
	fh := files[0]
	if fh.Filename == "" {
		return NewBadRequestError(MsgEmptyFilename)
	}

	recordPath := models.DefaultRecordPath
	if values := form.Value[PathField]; len(values) > 0 && strings.TrimSpace(values[0]) != "" {
		recordPath = values[0]
	}

	src, err := fh.Open()
	if err != nil {
		return NewInternalError(MsgServerError, err)
	}
	defer src.Close()

	name := storage.NewName(fh.Filename, "")
	info, err := h.uploads.Save(name, src)
	if err != nil {
		h.log.Errorf("saving upload %q failed: %v", fh.Filename, err)
		return NewInternalError(MsgServerError, err)
	}
	path, err := h.uploads.Path(name)
	if err != nil {
		return NewInternalError(MsgServerError, err)
	}

	record := &models.UploadRecord{
		Name:         name,
		OriginalName: fh.Filename,
		Path:         path,
		Size:         info.Size,
		StoredAt:     time.Now(),
	}
	h.log.Infof("stored upload %s (%d bytes), record %s", record.Name, record.Size, recordPath)

	result, err := h.converter.Convert(c.Request().Context(), models.ConversionRequest{
		Upload:     record,
		RecordPath: recordPath,
	})
	if err != nil {
		return NewInternalError(MsgConvertFailed, err)
	}

	return c.JSON(http.StatusOK, models.UploadResponse{
		Status:      models.StatusSuccess,
		Message:     MsgConverted,
		DownloadURL: DownloadURL(result.ArtifactName),
		Summary:     result.Summary,
	})
}
