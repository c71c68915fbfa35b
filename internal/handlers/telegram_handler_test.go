package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contact_service/internal/telegram"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUpdateHandler struct {
	updates []telegram.Update
	err     error
}

func (m *mockUpdateHandler) HandleUpdate(_ context.Context, u telegram.Update) error {
	m.updates = append(m.updates, u)
	return m.err
}

func telegramRouter(bot UpdateHandler, secret string) *chi.Mux {
	r := chi.NewRouter()
	RegisterTelegramRoutes(r, NewTelegramHandler(bot, secret, nil))
	return r
}

func webhookRequest(secret, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost,
		"/api/telegram/webhook/"+secret, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestWebhook_DeliversUpdate(t *testing.T) {
	bot := &mockUpdateHandler{}
	router := telegramRouter(bot, "hook-secret")

	body := `{
		"update_id": 42,
		"message": {
			"message_id": 1,
			"from": {"id": 123, "username": "owner"},
			"chat": {"id": 123},
			"text": "/status",
			"unknown_field": "telegram adds fields without notice"
		}
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, webhookRequest("hook-secret", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

	require.Len(t, bot.updates, 1)
	assert.Equal(t, int64(42), bot.updates[0].UpdateID)
	assert.Equal(t, "/status", bot.updates[0].Message.Text)
}

func TestWebhook_WrongSecret(t *testing.T) {
	bot := &mockUpdateHandler{}
	router := telegramRouter(bot, "hook-secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, webhookRequest("wrong", `{"update_id": 1}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, bot.updates)
}

// Telegram ретраит любой не-200 ответ, поэтому ошибки обработки
// и мусор в теле всё равно закрываются {"ok": true}.
func TestWebhook_AlwaysOKOnHandlerError(t *testing.T) {
	bot := &mockUpdateHandler{err: fmt.Errorf("send failed")}
	router := telegramRouter(bot, "hook-secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, webhookRequest("hook-secret", `{"update_id": 1}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
}

func TestWebhook_AlwaysOKOnGarbageBody(t *testing.T) {
	bot := &mockUpdateHandler{}
	router := telegramRouter(bot, "hook-secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, webhookRequest("hook-secret", "not json at all"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
	assert.Empty(t, bot.updates)
}
