// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// User facing messages.
const (
	MsgMissingFile     = "请选择要上传的DSS文件"
	MsgEmptyFilename   = "文件名不能为空"
	MsgConverted       = "转换完成"
	MsgConvertFailed   = "转换失败："
	MsgServerError     = "服务器错误："
	MsgDownloadFailed  = "下载失败："
	MsgPayloadTooLarge = "上传文件超过50MB限制"
)

// APIError is serialized as the uniform {"status":"error","message":...} envelope.
type APIError struct {
	Code    int    `json:"-"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func newAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Status: models.StatusError, Message: message}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string) *APIError {
	return newAPIError(http.StatusBadRequest, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(message string) *APIError {
	return newAPIError(http.StatusNotFound, message)
}

// NewInternalError creates a 500 error whose message is prefix followed by the cause text.
func NewInternalError(prefix string, cause error) *APIError {
	msg := prefix
	if cause != nil {
		msg += cause.Error()
	}
	return newAPIError(http.StatusInternalServerError, msg)
}

// ErrorHandler renders every error as the JSON envelope.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		msg := fmt.Sprintf("%v", httpErr.Message)
		if httpErr.Code == http.StatusRequestEntityTooLarge {
			msg = MsgPayloadTooLarge
		}
		apiErr = newAPIError(httpErr.Code, msg)
	default:
		apiErr = NewInternalError(MsgServerError, err)
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Code)
		return
	}
	c.JSON(apiErr.Code, apiErr)
}
