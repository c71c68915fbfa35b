package models

import "time"

// ContactRecord — строка таблицы contacts, одна на заявку.
type ContactRecord struct {
	ID          string      `db:"id"` // UUID заявки
	Name        string      `db:"name"`
	Message     string      `db:"message"`
	Channels    []string    `db:"channels"` // JSONB
	Contacts    ContactInfo `db:"contacts"` // JSONB
	IPAddress   string      `db:"ip_address"`
	UserAgent   string      `db:"user_agent"`
	CreatedAt   time.Time   `db:"created_at"`
	ProcessedAt time.Time   `db:"processed_at"`
}
