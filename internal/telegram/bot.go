package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"contact_service/internal/kafka"
)

var ErrNotConfigured = errors.New("telegram bot not configured")

const defaultAPIURL = "https://api.telegram.org"

// Update — входящее обновление от Telegram (webhook). Разбираем только
// то, что нужно: команды в личке.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *IncomingMessage `json:"message,omitempty"`
}

type IncomingMessage struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID int64 `json:"id"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// Bot шлёт уведомления владельцу и отвечает на его команды.
// Сообщения не от владельца игнорируются.
type Bot struct {
	token   string
	ownerID int64
	apiURL  string
	client  *http.Client
	logger  *log.Logger
}

func NewBot(token string, ownerID int64, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{
		token:   token,
		ownerID: ownerID,
		apiURL:  defaultAPIURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// WithAPIURL переопределяет адрес Bot API (для тестов).
func (b *Bot) WithAPIURL(u string) *Bot {
	b.apiURL = u
	return b
}

// Send отправляет владельцу уведомление о новой заявке.
func (b *Bot) Send(ctx context.Context, msg *kafka.ContactMessage) error {
	if b.token == "" {
		return ErrNotConfigured
	}
	if b.ownerID == 0 {
		return fmt.Errorf("%w: owner id not set", ErrNotConfigured)
	}

	text := formatNotification(msg)
	if err := b.sendMessage(ctx, b.ownerID, text, "HTML"); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	b.logger.Printf("notification sent for contact %s", msg.ID)
	return nil
}

// HandleUpdate обрабатывает webhook-обновление: команды /start и /status
// от владельца, всё остальное молча пропускается.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) error {
	if u.Message == nil || u.Message.From == nil {
		return nil
	}
	if u.Message.From.ID != b.ownerID {
		b.logger.Printf("ignoring update from unauthorized user %d", u.Message.From.ID)
		return nil
	}

	switch u.Message.Text {
	case "/start":
		return b.sendMessage(ctx, u.Message.Chat.ID, startReply, "")
	case "/status":
		return b.sendMessage(ctx, u.Message.Chat.ID,
			fmt.Sprintf(statusReply, u.Message.From.ID), "")
	}
	return nil
}

// SetWebhook регистрирует webhook у Telegram; секрет вшит в путь.
func (b *Bot) SetWebhook(ctx context.Context, baseURL, secret string) error {
	if b.token == "" {
		return ErrNotConfigured
	}

	full := fmt.Sprintf("%s/api/telegram/webhook/%s", baseURL, secret)
	err := b.call(ctx, "setWebhook", map[string]any{
		"url":                  full,
		"drop_pending_updates": true,
	})
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	b.logger.Printf("telegram webhook set to %s", baseURL)
	return nil
}

func (b *Bot) DeleteWebhook(ctx context.Context) error {
	if b.token == "" {
		return nil
	}
	if err := b.call(ctx, "deleteWebhook", map[string]any{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	b.logger.Println("telegram webhook removed")
	return nil
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	return b.call(ctx, "sendMessage", body)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (b *Bot) call(ctx context.Context, method string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", b.apiURL, b.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s failed (status %d): %s", method, resp.StatusCode, apiResp.Description)
	}

	return nil
}
