package kafka

import (
	"encoding/json"
	"time"

	"contact_service/internal/models"

	"github.com/google/uuid"
)

// ContactMessage — единица транспорта через Kafka: заявка плюс provenance
// (ip, user-agent, время создания) и собственный id. Ключ публикации = ID.
type ContactMessage struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Message   string             `json:"message"`
	Channels  []models.Channel   `json:"channels"`
	Contacts  models.ContactInfo `json:"contacts"`
	IPAddress string             `json:"ip_address,omitempty"`
	UserAgent string             `json:"user_agent,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

func NewContactMessage(req *models.ContactRequest, ip, userAgent string) *ContactMessage {
	return &ContactMessage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Message:   req.Message,
		Channels:  req.Channels,
		Contacts:  req.Contacts,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}
}

func (m *ContactMessage) ToContactRecord() *models.ContactRecord {
	channels := make([]string, 0, len(m.Channels))
	for _, ch := range m.Channels {
		channels = append(channels, string(ch))
	}

	return &models.ContactRecord{
		ID:        m.ID,
		Name:      m.Name,
		Message:   m.Message,
		Channels:  channels,
		Contacts:  m.Contacts,
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
		CreatedAt: m.CreatedAt,
	}
}

// DeadLetterEntry — формат DLQ-топика: исходный payload как есть плюс
// причина отказа. Автоматического replay нет.
type DeadLetterEntry struct {
	OriginalMessage json.RawMessage `json:"original_message"`
	Error           string          `json:"error"`
}
