package handlers

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contact_service/internal/kafka"
	"contact_service/internal/models"
)

// RateLimiter — контракт admission-контроля.
type RateLimiter interface {
	Allow(ctx context.Context, identifier string) bool
	Remaining(ctx context.Context, identifier string) int
	Window() time.Duration
}

// ContactPublisher — durable-публикация заявки в очередь.
type ContactPublisher interface {
	SendContactMessage(msg *kafka.ContactMessage) error
}

type ContactHandler struct {
	limiter   RateLimiter
	publisher ContactPublisher
	apiKey    string
	logger    *log.Logger
}

func NewContactHandler(
	limiter RateLimiter,
	publisher ContactPublisher,
	apiKey string,
	logger *log.Logger,
) *ContactHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ContactHandler{
		limiter:   limiter,
		publisher: publisher,
		apiKey:    apiKey,
		logger:    logger,
	}
}

// POST /api/contact
// 200: { "status": "queued", "message": "...", "id": "<uuid>" }
// 400: invalid input / missing contact for a requested channel
// 401: invalid api key
// 429: rate limited (Retry-After + remaining)
// 503: queue unavailable
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Header.Get("api-key") != h.apiKey {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	clientIP := clientIP(r)

	var req models.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// квоту тратят только валидные заявки
	if !h.limiter.Allow(ctx, clientIP) {
		remaining := h.limiter.Remaining(ctx, clientIP)
		windowSeconds := int(h.limiter.Window() / time.Second)

		w.Header().Set("Retry-After", strconv.Itoa(windowSeconds))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     "rate limit exceeded, try again later",
			"remaining": remaining,
		})
		return
	}

	msg := kafka.NewContactMessage(&req, clientIP, r.UserAgent())

	if err := h.publisher.SendContactMessage(msg); err != nil {
		h.logger.Printf("failed to queue contact message %s: %v", msg.ID, err)
		writeError(w, http.StatusServiceUnavailable,
			"service temporarily unavailable, please try again later")
		return
	}

	h.logger.Printf("contact form submitted: %s from %s", msg.ID, clientIP)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "queued",
		"message": "Your message has been received. We will contact you soon!",
		"id":      msg.ID,
	})
}

// clientIP достаёт адрес клиента с учётом прокси:
// X-Forwarded-For (первый hop) → X-Real-IP → RemoteAddr.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.Index(forwarded, ","); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
