package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"contact_service/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB — то, что репозиторию нужно от pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type ContactRepository struct {
	db DB
	sb sq.StatementBuilderType
}

func NewContactRepository(db DB) *ContactRepository {
	return &ContactRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save вставляет запись о заявке. Ключ — id сообщения, поэтому повторная
// доставка того же сообщения (at-least-once, ретрай продюсера) не создаёт
// вторую строку: ON CONFLICT DO NOTHING.
func (r *ContactRepository) Save(ctx context.Context, rec *models.ContactRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.ID == "" {
		return fmt.Errorf("record id is empty")
	}
	if rec.Name == "" {
		return fmt.Errorf("name is empty")
	}

	channels, err := json.Marshal(rec.Channels)
	if err != nil {
		return fmt.Errorf("marshal channels: %w", err)
	}
	contacts, err := json.Marshal(rec.Contacts)
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}

	query := r.sb.
		Insert("contacts").
		Columns(
			"id",
			"name",
			"message",
			"channels",
			"contacts",
			"ip_address",
			"user_agent",
			"created_at",
			"processed_at",
		).
		Values(
			rec.ID,
			rec.Name,
			rec.Message,
			channels,
			contacts,
			rec.IPAddress,
			rec.UserAgent,
			rec.CreatedAt,
			sq.Expr("NOW()"),
		).
		Suffix("ON CONFLICT (id) DO NOTHING")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert contact sql: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// дубликат по id — уже сохранено ранее
		return nil
	}

	return nil
}
