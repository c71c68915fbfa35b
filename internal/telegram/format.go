package telegram

import (
	"fmt"
	"strings"

	"contact_service/internal/kafka"
	"contact_service/internal/models"
)

const startReply = "👋 Привет! Я бот для уведомлений с сайта.\n\n" +
	"Я буду передавать вам сообщения, когда кто-то оставит заявку на сайте.\n\n" +
	"Команды:\n" +
	"/status - Проверить статус бота"

const statusReply = "✅ Бот работает нормально!\n\n" +
	"🔔 Уведомления: Включены\n" +
	"👤 Твой ID: %d"

var channelEmoji = map[models.Channel]string{
	models.ChannelEmail:    "📧",
	models.ChannelTelegram: "💬",
	models.ChannelVK:       "💙",
	models.ChannelPhone:    "📱",
	models.ChannelWebsite:  "🌐",
	models.ChannelMax:      "💜",
	models.ChannelWhatsApp: "📲",
}

var channelName = map[models.Channel]string{
	models.ChannelEmail:    "Email",
	models.ChannelTelegram: "Telegram",
	models.ChannelVK:       "VK",
	models.ChannelPhone:    "Телефон",
	models.ChannelWebsite:  "Сайт",
	models.ChannelMax:      "MAX",
	models.ChannelWhatsApp: "WhatsApp",
}

func formatNotification(msg *kafka.ContactMessage) string {
	var contacts []string
	for _, ch := range msg.Channels {
		value := msg.Contacts.Value(ch)
		if value == "" {
			continue
		}

		emoji, ok := channelEmoji[ch]
		if !ok {
			emoji = "📎"
		}
		name, ok := channelName[ch]
		if !ok {
			name = string(ch)
		}

		// telegram показываем с @
		if ch == models.ChannelTelegram && !strings.HasPrefix(value, "@") {
			value = "@" + value
		}

		contacts = append(contacts, fmt.Sprintf("%s %s: %s", emoji, name, value))
	}

	var b strings.Builder
	b.WriteString("📬 <b>Новая заявка с сайта!</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>Имя:</b> %s\n\n", escapeHTML(msg.Name))
	fmt.Fprintf(&b, "📝 <b>Сообщение:</b>\n%s\n\n", escapeHTML(msg.Message))
	b.WriteString("📞 <b>Способы связи:</b>\n")
	for _, c := range contacts {
		b.WriteString("• " + c + "\n")
	}
	fmt.Fprintf(&b, "\n🕐 %s", msg.CreatedAt.Format("02.01.2006 15:04"))

	return b.String()
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
