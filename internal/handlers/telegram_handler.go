package handlers

import (
	"context"
	"log"
	"net/http"

	"contact_service/internal/telegram"

	"github.com/go-chi/chi/v5"
)

// UpdateHandler — обработка входящего обновления от Telegram.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u telegram.Update) error
}

type TelegramHandler struct {
	bot    UpdateHandler
	secret string
	logger *log.Logger
}

func NewTelegramHandler(bot UpdateHandler, secret string, logger *log.Logger) *TelegramHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &TelegramHandler{
		bot:    bot,
		secret: secret,
		logger: logger,
	}
}

// POST /api/telegram/webhook/{secret}
// Секрет в пути — дополнительный слой защиты. На любой исход обработки
// отвечаем {"ok": true}, чтобы Telegram не устраивал шторм ретраев.
func (h *TelegramHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != h.secret {
		h.logger.Println("invalid webhook secret attempted")
		writeError(w, http.StatusForbidden, "invalid webhook secret")
		return
	}

	var update telegram.Update
	if err := decodeJSON(r, &update); err != nil {
		h.logger.Printf("decode telegram update: %v", err)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if err := h.bot.HandleUpdate(r.Context(), update); err != nil {
		h.logger.Printf("error processing telegram update: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
