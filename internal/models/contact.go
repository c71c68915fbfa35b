package models

import (
	"errors"
	"fmt"
	"strings"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
	ChannelVK       Channel = "vk"
	ChannelPhone    Channel = "phone"
	ChannelWebsite  Channel = "website"
	ChannelMax      Channel = "max"
	ChannelWhatsApp Channel = "whatsapp" // deprecated, принимаем для обратной совместимости
)

var allowedChannels = map[Channel]struct{}{
	ChannelEmail:    {},
	ChannelTelegram: {},
	ChannelVK:       {},
	ChannelPhone:    {},
	ChannelWebsite:  {},
	ChannelMax:      {},
	ChannelWhatsApp: {},
}

func (c Channel) Valid() bool {
	_, ok := allowedChannels[c]
	return ok
}

var (
	ErrInvalidRequest = errors.New("invalid contact request")
	ErrMissingContact = errors.New("contact information required for channel")
)

const (
	maxNameLen    = 100
	maxMessageLen = 5000
)

type ContactInfo struct {
	Email    string `json:"email,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	VK       string `json:"vk,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Website  string `json:"website,omitempty"`
	Max      string `json:"max,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// Value возвращает контакт для канала. Закрытый набор каналов,
// никакого динамического lookup по имени поля.
func (c ContactInfo) Value(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelTelegram:
		return c.Telegram
	case ChannelVK:
		return c.VK
	case ChannelPhone:
		return c.Phone
	case ChannelWebsite:
		return c.Website
	case ChannelMax:
		return c.Max
	case ChannelWhatsApp:
		return c.WhatsApp
	default:
		return ""
	}
}

// Normalize приводит контакты к виду хранения: telegram без "@",
// телефонные номера только цифры и "+".
func (c *ContactInfo) Normalize() {
	c.Email = strings.TrimSpace(c.Email)
	c.Telegram = strings.TrimPrefix(strings.TrimSpace(c.Telegram), "@")
	c.VK = strings.TrimSpace(c.VK)
	c.Phone = cleanPhone(c.Phone)
	c.Website = strings.TrimSpace(c.Website)
	c.Max = strings.TrimSpace(c.Max)
	c.WhatsApp = cleanPhone(c.WhatsApp)
}

func cleanPhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContactRequest — провалидированная заявка с формы.
type ContactRequest struct {
	Name     string      `json:"name"`
	Message  string      `json:"message"`
	Channels []Channel   `json:"channels"`
	Contacts ContactInfo `json:"contacts"`
}

func (r *ContactRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	r.Name = strings.TrimSpace(r.Name)
	r.Message = strings.TrimSpace(r.Message)
	r.Contacts.Normalize()

	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if len(r.Name) > maxNameLen {
		return fmt.Errorf("%w: name is too long", ErrInvalidRequest)
	}
	if r.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if len(r.Message) > maxMessageLen {
		return fmt.Errorf("%w: message is too long", ErrInvalidRequest)
	}
	if len(r.Channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", ErrInvalidRequest)
	}

	for _, ch := range r.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalidRequest, string(ch))
		}
		if r.Contacts.Value(ch) == "" {
			return fmt.Errorf("%w: %s", ErrMissingContact, string(ch))
		}
	}

	return nil
}
