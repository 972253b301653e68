// Package journal persists emitted alerts to Postgres for offline
// inspection. The journal is optional and strictly best effort: a write
// failure is logged and the poll loop moves on.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sentinel/models"
)

type Journal struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects to Postgres and creates the alerts table when missing.
func Open(dsn string) (*Journal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging journal db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS alerts (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			kind TEXT NOT NULL,
			side TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			strength DOUBLE PRECISION NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("creating alerts table: %w", err)
	}

	return &Journal{
		db:     db,
		logger: log.With().Str("component", "journal").Logger(),
	}, nil
}

// Record inserts one emitted alert.
func (j *Journal) Record(ctx context.Context, a models.Alert) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO alerts (symbol, kind, side, price, strength, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.Symbol, string(a.Kind), string(a.Side), a.Price, a.Strength, a.SentAt)
	if err != nil {
		return fmt.Errorf("recording alert: %w", err)
	}
	return nil
}

// Recent returns the latest alerts, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.Alert, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT symbol, kind, side, price, strength, sent_at
		FROM alerts
		ORDER BY sent_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var kind, side string
		var sentAt time.Time
		if err := rows.Scan(&a.Symbol, &kind, &side, &a.Price, &a.Strength, &sentAt); err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}
		a.Kind = models.SignalKind(kind)
		a.Side = models.Side(side)
		a.SentAt = sentAt
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
