package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suivistock/internal/config"
	"suivistock/internal/services"
	ws "suivistock/internal/websocket"
)

func newTestHealthHandler(t *testing.T) *HealthHandler {
	t.Helper()

	root := t.TempDir()
	paths := &config.Paths{
		ExecutableDir: root,
		DataDir:       filepath.Join(root, "data"),
		UploadsDir:    filepath.Join(root, "data", "uploads"),
		OutputsDir:    filepath.Join(root, "data", "outputs"),
		ReportsDir:    filepath.Join(root, "data", "reports"),
		LogsDir:       filepath.Join(root, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	treatments := services.NewTreatmentServiceWithPaths(config.Default(), paths, logger)
	hub := ws.NewHub(logger)
	service := services.NewHealthService("v0.0.0-test", paths, treatments, hub, logger)
	return NewHealthHandler(service, logger)
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	handler := newTestHealthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "v0.0.0-test", status["version"])
}

func TestHealthHandler_ReadinessCheck(t *testing.T) {
	handler := newTestHealthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health/ready", nil)
	rec := httptest.NewRecorder()
	handler.ReadinessCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ready", status["status"])
}

func TestHealthHandler_LivenessCheck(t *testing.T) {
	handler := newTestHealthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health/live", nil)
	rec := httptest.NewRecorder()
	handler.LivenessCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"alive"`)
}

func TestHealthHandler_Version(t *testing.T) {
	handler := newTestHealthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.Version(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"v0.0.0-test"`)
}

func TestHealthHandler_SystemStats(t *testing.T) {
	handler := newTestHealthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health/stats", nil)
	rec := httptest.NewRecorder()
	handler.SystemStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output_files":0`)
	assert.Contains(t, rec.Body.String(), `"websocket_clients":0`)
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	handler := newTestHealthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health/detailed", nil)
	rec := httptest.NewRecorder()
	handler.DetailedHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"treatment"`)
	assert.Contains(t, rec.Body.String(), `"websocket"`)
}
