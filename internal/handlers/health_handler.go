package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger — проверка живости стора счётчиков.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerChecker — подключён ли продюсер к брокеру.
type BrokerChecker interface {
	Connected() bool
	Topic() string
}

type HealthHandler struct {
	store       Pinger
	producer    BrokerChecker
	brokers     []string
	environment string
}

func NewHealthHandler(store Pinger, producer BrokerChecker, brokers []string, environment string) *HealthHandler {
	return &HealthHandler{
		store:       store,
		producer:    producer,
		brokers:     brokers,
		environment: environment,
	}
}

// GET /health — всегда 200, базовая проверка для балансировщика.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GET /health/live — liveness, всегда 200 пока процесс жив.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

type dependencyCheck struct {
	Status  string `json:"status"` // healthy | unhealthy | not_connected
	Details any    `json:"details"`
}

// GET /health/ready — readiness: redis и kafka, 200/503 с разбивкой
// по зависимостям.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]dependencyCheck{
		"redis": h.checkRedis(ctx),
		"kafka": h.checkKafka(),
	}

	allHealthy := true
	for _, c := range checks {
		if c.Status != "healthy" {
			allHealthy = false
			break
		}
	}

	code := http.StatusOK
	status := "ready"
	if !allHealthy {
		code = http.StatusServiceUnavailable
		status = "not_ready"
	}

	writeJSON(w, code, map[string]any{
		"status":      status,
		"checks":      checks,
		"environment": h.environment,
	})
}

// GET /health/startup — то же, что readiness.
func (h *HealthHandler) Startup(w http.ResponseWriter, r *http.Request) {
	h.Readiness(w, r)
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyCheck {
	if h.store == nil {
		return dependencyCheck{Status: "not_connected", Details: "redis client not initialized"}
	}
	if err := h.store.Ping(ctx); err != nil {
		return dependencyCheck{Status: "unhealthy", Details: err.Error()}
	}
	return dependencyCheck{Status: "healthy", Details: "connected"}
}

func (h *HealthHandler) checkKafka() dependencyCheck {
	if h.producer == nil || !h.producer.Connected() {
		return dependencyCheck{Status: "not_connected", Details: "kafka producer not started"}
	}
	return dependencyCheck{
		Status: "healthy",
		Details: map[string]any{
			"bootstrap_servers": h.brokers,
			"topic":             h.producer.Topic(),
		},
	}
}
