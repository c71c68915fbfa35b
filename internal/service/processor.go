package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"contact_service/internal/kafka"
	"contact_service/internal/metrics"
	"contact_service/internal/models"
)

// ReasonNotificationFailed — тег причины в DLQ, когда попытки
// уведомления исчерпаны.
const ReasonNotificationFailed = "telegram_notification_failed"

type ContactRepository interface {
	Save(ctx context.Context, rec *models.ContactRecord) error
}

type Notifier interface {
	Send(ctx context.Context, msg *kafka.ContactMessage) error
}

type DeadLetterPublisher interface {
	SendDeadLetter(entry *kafka.DeadLetterEntry) error
}

// ContactProcessor доводит каждое сообщение до терминального исхода:
// сохранить → уведомить с ретраями → при исчерпании в DLQ.
// Собственного состояния не держит, только оркестрация двух адаптеров.
type ContactProcessor struct {
	repo     ContactRepository
	notifier Notifier
	dlq      DeadLetterPublisher
	logger   *log.Logger

	maxAttempts int
	baseBackoff time.Duration
}

func NewContactProcessor(
	repo ContactRepository,
	notifier Notifier,
	dlq DeadLetterPublisher,
	logger *log.Logger,
	maxAttempts int,
	baseBackoff time.Duration,
) *ContactProcessor {
	if logger == nil {
		logger = log.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseBackoff <= 0 {
		baseBackoff = 1 * time.Second
	}

	return &ContactProcessor{
		repo:        repo,
		notifier:    notifier,
		dlq:         dlq,
		logger:      logger,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
	}
}

// ProcessContactMessage возвращает nil для любого терминального исхода,
// включая уход в DLQ: offset после этого можно двигать. Ошибка — только
// отмена контекста (shutdown), тогда сообщение останется незакоммиченным
// и будет перечитано после рестарта.
func (p *ContactProcessor) ProcessContactMessage(ctx context.Context, payload []byte) error {
	var msg kafka.ContactMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.logger.Printf("unmarshal contact message: %v", err)
		p.sendToDLQ(payload, fmt.Sprintf("unmarshal contact message: %v", err))
		return nil
	}

	p.logger.Printf("processing contact message id=%s", msg.ID)

	// 1. Сохранить в базу. Ошибка — сразу DLQ, уведомление не шлём.
	if err := p.repo.Save(ctx, msg.ToContactRecord()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Printf("save contact failed id=%s: %v", msg.ID, err)
		p.sendToDLQ(payload, fmt.Sprintf("save contact: %v", err))
		return nil
	}
	p.logger.Printf("contact saved id=%s", msg.ID)

	// 2. Уведомление с экспоненциальным backoff.
	if err := p.notifyWithRetry(ctx, &msg); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Printf("notification failed id=%s after %d attempts", msg.ID, p.maxAttempts)
		p.sendToDLQ(payload, ReasonNotificationFailed)
		return nil
	}

	metrics.IncContactsProcessed()
	p.logger.Printf("contact message processed id=%s", msg.ID)
	return nil
}

// notifyWithRetry: до maxAttempts попыток, пауза между попытками
// удваивается (1s, 2s, 4s), после последней попытки паузы нет.
// Ожидание прерывается отменой ctx.
func (p *ContactProcessor) notifyWithRetry(ctx context.Context, msg *kafka.ContactMessage) error {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err := p.notifier.Send(ctx, msg)
		if err == nil {
			metrics.IncNotificationSent()
			return nil
		}

		lastErr = err
		metrics.IncNotificationFailed()
		p.logger.Printf("notification attempt %d/%d failed id=%s: %v",
			attempt, p.maxAttempts, msg.ID, err)

		if attempt == p.maxAttempts {
			break
		}

		backoff := p.baseBackoff << (attempt - 1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("notification failed after %d attempts: %w", p.maxAttempts, lastErr)
}

// sendToDLQ пишет запись в dead-letter топик. Ошибка записи только
// логируется: обработка сообщения в любом случае завершается.
// Это осознанная деградация — при недоступном DLQ остаётся только лог.
func (p *ContactProcessor) sendToDLQ(payload []byte, reason string) {
	original := json.RawMessage(payload)
	if !json.Valid(payload) {
		// битый payload заворачиваем строкой, чтобы сама DLQ-запись
		// оставалась валидным JSON
		original, _ = json.Marshal(string(payload))
	}

	entry := &kafka.DeadLetterEntry{
		OriginalMessage: original,
		Error:           reason,
	}

	if err := p.dlq.SendDeadLetter(entry); err != nil {
		p.logger.Printf("send to DLQ failed (reason=%s): %v", reason, err)
		return
	}

	metrics.IncDeadLettered(reason)
	p.logger.Printf("message sent to DLQ: %s", reason)
}
