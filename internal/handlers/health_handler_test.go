package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockBroker struct {
	connected bool
}

func (m *mockBroker) Connected() bool { return m.connected }
func (m *mockBroker) Topic() string   { return "contact-requests" }

func healthRouter(store Pinger, producer BrokerChecker) *chi.Mux {
	r := chi.NewRouter()
	h := NewHealthHandler(store, producer, []string{"localhost:9092"}, "test")
	RegisterHealthRoutes(r, h)
	return r
}

type readinessResponse struct {
	Status string `json:"status"`
	Checks map[string]struct {
		Status  string          `json:"status"`
		Details json.RawMessage `json:"details"`
	} `json:"checks"`
	Environment string `json:"environment"`
}

func getReadiness(t *testing.T, router *chi.Mux) (int, readinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealth_AlwaysOK(t *testing.T) {
	router := healthRouter(&mockPinger{err: fmt.Errorf("down")}, &mockBroker{})

	for _, path := range []string{"/health", "/health/live"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	router := healthRouter(&mockPinger{}, &mockBroker{connected: true})

	code, resp := getReadiness(t, router)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["redis"].Status)
	assert.Equal(t, "healthy", resp.Checks["kafka"].Status)
	assert.Equal(t, "test", resp.Environment)
}

func TestReadiness_RedisDown(t *testing.T) {
	router := healthRouter(&mockPinger{err: fmt.Errorf("connection refused")}, &mockBroker{connected: true})

	code, resp := getReadiness(t, router)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Checks["redis"].Status)
	assert.Contains(t, string(resp.Checks["redis"].Details), "connection refused")
	assert.Equal(t, "healthy", resp.Checks["kafka"].Status)
}

func TestReadiness_KafkaNotStarted(t *testing.T) {
	router := healthRouter(&mockPinger{}, &mockBroker{connected: false})

	code, resp := getReadiness(t, router)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_connected", resp.Checks["kafka"].Status)
}

func TestReadiness_NoRedisClient(t *testing.T) {
	router := healthRouter(nil, &mockBroker{connected: true})

	code, resp := getReadiness(t, router)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_connected", resp.Checks["redis"].Status)
}

func TestStartup_MirrorsReadiness(t *testing.T) {
	router := healthRouter(&mockPinger{}, &mockBroker{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/startup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
