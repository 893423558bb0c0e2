// handlers_test.go - Tests for health, TID mapping and inventory handlers
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/gliffy-migrator/backend/internal/tidscan"
)

func TestHealthHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHealthHandler("1.2.3", "2026-08-28T00:00:00Z")
	if assert.NoError(t, h.HandleHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "1.2.3", body["version"])
		assert.Equal(t, "2026-08-28T00:00:00Z", body["buildTime"])
		assert.NotEmpty(t, body["uptime"])
	}
}

func TestTIDHandler_GetMissingMappingIsEmpty(t *testing.T) {
	e := echo.New()
	h := NewTIDHandler(filepath.Join(t.TempDir(), "tid_mapping.json"))

	req := httptest.NewRequest(http.MethodGet, "/api/tids/mapping", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleGetMapping(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "{}", rec.Body.String())
	}
}

func TestTIDHandler_UpdateThenGet(t *testing.T) {
	e := echo.New()
	h := NewTIDHandler(filepath.Join(t.TempDir(), "tid_mapping.json"))

	image := "images/pump.png"
	mapping := map[string]tidscan.TIDRecord{
		"com.example.pump": {Count: 3, ImagePath: &image, Description: "Pump symbol"},
	}
	body, _ := json.Marshal(mapping)

	req := httptest.NewRequest(http.MethodPut, "/api/tids/mapping", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUpdateMapping(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tids/mapping", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)

	if assert.NoError(t, h.HandleGetMapping(c)) {
		var got map[string]tidscan.TIDRecord
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 1)
		assert.Equal(t, 3, got["com.example.pump"].Count)
		if assert.NotNil(t, got["com.example.pump"].ImagePath) {
			assert.Equal(t, image, *got["com.example.pump"].ImagePath)
		}
	}
}

func TestInventoryHandler_Unavailable(t *testing.T) {
	e := echo.New()
	h := NewInventoryHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/summary", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleGetSummary(c)
	assert.Error(t, err)
	apiErr, ok := err.(*APIError)
	if assert.True(t, ok, "expected APIError, got %T", err) {
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
		assert.Equal(t, "SERVICE_UNAVAILABLE", apiErr.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(NewNotFoundError("file", "abc"), c)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["code"])
}
