package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthStores(t *testing.T) (*storage.LocalStore, *storage.LocalStore) {
	t.Helper()
	root := t.TempDir()
	uploads, err := storage.NewLocalStore(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	exports, err := storage.NewLocalStore(filepath.Join(root, "exports"))
	require.NoError(t, err)
	return uploads, exports
}

func callHealth(t *testing.T, h HealthHandler) (int, HealthResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleHealth(e.NewContext(req, rec)))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestHealth_AllChecksPass(t *testing.T) {
	uploads, exports := healthStores(t)
	self, err := os.Executable()
	require.NoError(t, err)

	code, resp := callHealth(t, NewHealthHandler("1.2.3", self, uploads, exports))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, HealthOK, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, map[string]string{"decoder": HealthOK, "uploads": HealthOK, "exports": HealthOK}, resp.Checks)
}

func TestHealth_DecoderMissing(t *testing.T) {
	uploads, exports := healthStores(t)
	original := lookPath
	lookPath = func(file string) (string, error) {
		return "", errors.New(file + ": executable file not found in $PATH")
	}
	t.Cleanup(func() { lookPath = original })

	code, resp := callHealth(t, NewHealthHandler("dev", "dss-reader", uploads, exports))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthDegraded, resp.Status)
	assert.Contains(t, resp.Checks["decoder"], "dss-reader")
	assert.Equal(t, HealthOK, resp.Checks["uploads"])
}

func TestHealth_ExportsUnavailable(t *testing.T) {
	uploads, exports := healthStores(t)
	require.NoError(t, os.RemoveAll(exports.Dir()))

	code, resp := callHealth(t, NewHealthHandler("dev", "", uploads, exports))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthDegraded, resp.Status)
	assert.NotEqual(t, HealthOK, resp.Checks["exports"])
	_, checked := resp.Checks["decoder"]
	assert.False(t, checked, "decoder check is skipped without a binary")
}
