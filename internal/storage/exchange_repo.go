package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// createdAtLayout is fixed-width so lexical order in SQLite matches time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// ExchangeRepo provides methods for exchange operations.
type ExchangeRepo struct {
	db *sql.DB
}

// NewExchangeRepo creates a new ExchangeRepo.
func NewExchangeRepo(db *sql.DB) *ExchangeRepo {
	return &ExchangeRepo{db: db}
}

// InsertExchange stores one exchange.
func (r *ExchangeRepo) InsertExchange(ctx context.Context, ex Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO exchanges (id, question, max_length, provider, response, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		ex.ID, ex.Question, ex.MaxLength, ex.Provider, ex.Response, ex.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exchange: %w", err)
	}
	return nil
}

// ListRecent returns up to limit exchanges, newest first.
func (r *ExchangeRepo) ListRecent(ctx context.Context, limit int) ([]Exchange, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, question, max_length, provider, response, created_at FROM exchanges ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exchanges := []Exchange{}
	for rows.Next() {
		var ex Exchange
		var createdAtStr string
		if err := rows.Scan(&ex.ID, &ex.Question, &ex.MaxLength, &ex.Provider, &ex.Response, &createdAtStr); err != nil {
			return nil, err
		}

		ex.CreatedAt, err = time.Parse(createdAtLayout, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAtStr, err)
		}

		exchanges = append(exchanges, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exchanges, nil
}

// Ping verifies the database is reachable.
func (r *ExchangeRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
