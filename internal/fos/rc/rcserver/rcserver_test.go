package rcserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/operations"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/rc"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	registry := rc.NewRegistry()
	deps := &operations.Deps{Root: fos.NewRoot(dir)}
	rc.RegisterMethods(registry, deps)
	return New(DefaultConfig(), registry, nil, nil)
}

func TestHealthReportsUpWithoutPinger(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "UP", body.Status)
}

func TestUnknownPathIs404(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWrongMethodIs405(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/fos", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRPCRoundTrip(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"jsonrpc":"2.0","method":"describe","id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/fos", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"jsonrpc":"2.0"`))
}

func TestOversizedBodyIs413(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 8
	dir := t.TempDir()
	registry := rc.NewRegistry()
	deps := &operations.Deps{Root: fos.NewRoot(dir)}
	rc.RegisterMethods(registry, deps)
	s := New(cfg, registry, nil, nil)

	body := []byte(`{"jsonrpc":"2.0","method":"describe","id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/fos", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"jsonrpc":"2.0","method":"describe","id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/fos", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "fos_rpc_requests_total"))
}
