package ratelimit

import (
	"context"
	"log"
	"strconv"
	"time"

	"contact_service/internal/metrics"
)

// Limiter — fixed-window подсчёт по identifier (обычно IP).
// Первый запрос окна заводит счётчик с TTL = окну, дальше INCR.
// Скользящее окно приближённое: всплеск на границе окон проходит,
// это осознанный компромисс.
//
// Любая ошибка стора — fail-open: запрос пропускаем, пишем warning.
// Доступность публичной формы важнее строгой квоты.
type Limiter struct {
	store       Store
	maxRequests int
	window      time.Duration
	logger      *log.Logger
}

func NewLimiter(store Store, maxRequests int, window time.Duration, logger *log.Logger) *Limiter {
	if logger == nil {
		logger = log.Default()
	}
	if maxRequests <= 0 {
		maxRequests = 5
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{
		store:       store,
		maxRequests: maxRequests,
		window:      window,
		logger:      logger,
	}
}

func (l *Limiter) MaxRequests() int      { return l.maxRequests }
func (l *Limiter) Window() time.Duration { return l.window }

func (l *Limiter) Allow(ctx context.Context, identifier string) bool {
	key := contactKey(identifier)

	current, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Printf("rate limiter store get failed, allowing request (fail-open): %v", err)
		metrics.IncRateLimitDecision("fail_open")
		return true
	}

	if !ok {
		// первый запрос окна
		if err := l.store.SetEx(ctx, key, "1", l.window); err != nil {
			l.logger.Printf("rate limiter store set failed, allowing request (fail-open): %v", err)
			metrics.IncRateLimitDecision("fail_open")
			return true
		}
		metrics.IncRateLimitDecision("allowed")
		return true
	}

	count, err := strconv.Atoi(current)
	if err != nil {
		l.logger.Printf("rate limiter counter corrupted for %s: %v", identifier, err)
		metrics.IncRateLimitDecision("fail_open")
		return true
	}

	if count >= l.maxRequests {
		l.logger.Printf("rate limit exceeded for %s: %d/%d", identifier, count, l.maxRequests)
		metrics.IncRateLimitDecision("denied")
		return false
	}

	if _, err := l.store.Incr(ctx, key); err != nil {
		l.logger.Printf("rate limiter store incr failed, allowing request (fail-open): %v", err)
		metrics.IncRateLimitDecision("fail_open")
		return true
	}

	metrics.IncRateLimitDecision("allowed")
	return true
}

// Remaining возвращает остаток квоты в текущем окне, не ниже нуля.
// При ошибке стора сообщаем полную квоту — согласовано с fail-open.
func (l *Limiter) Remaining(ctx context.Context, identifier string) int {
	current, ok, err := l.store.Get(ctx, contactKey(identifier))
	if err != nil || !ok {
		return l.maxRequests
	}

	count, err := strconv.Atoi(current)
	if err != nil {
		return l.maxRequests
	}

	remaining := l.maxRequests - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TTL — секунды до сброса окна, 0 если окно не активно.
func (l *Limiter) TTL(ctx context.Context, identifier string) int {
	d, err := l.store.TTL(ctx, contactKey(identifier))
	if err != nil || d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
