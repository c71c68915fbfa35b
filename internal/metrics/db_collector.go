package metrics

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartDBCollector(ctx context.Context, db *pgxpool.Pool, interval time.Duration, logger *log.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		updateContactsGauge(ctx, db, logger)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				updateContactsGauge(ctx, db, logger)
			}
		}
	}()
}

func updateContactsGauge(ctx context.Context, db *pgxpool.Pool, logger *log.Logger) {
	var cnt int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&cnt); err != nil {
		logger.Printf("metrics db query contacts: %v", err)
		return
	}
	SetContactsRowsCount(cnt)
}
