package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSnapshot stores one row per lead in the leads table. Rows are
// upserted, never deleted, and keep their first-seen position.
type PostgresSnapshot struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshot creates a snapshot backed by pool.
func NewPostgresSnapshot(pool *pgxpool.Pool) *PostgresSnapshot {
	return &PostgresSnapshot{pool: pool}
}

// Load returns every stored lead ordered by position.
func (p *PostgresSnapshot) Load(ctx context.Context) ([]Lead, error) {
	rows, err := p.pool.Query(ctx, `SELECT payload FROM leads ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var lead Lead
		if err := json.Unmarshal(payload, &lead); err != nil {
			return nil, fmt.Errorf("decode lead row: %w", err)
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

// Save upserts the whole collection in one transaction.
func (p *PostgresSnapshot) Save(ctx context.Context, leads []Lead) error {
	batch := &pgx.Batch{}
	for i, lead := range leads {
		payload, err := json.Marshal(lead)
		if err != nil {
			return fmt.Errorf("encode lead %s: %w", lead.ID, err)
		}
		batch.Queue(`
			INSERT INTO leads (id, position, status, payload, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
		`, lead.ID, i, string(lead.Status), payload, lead.UpdatedAt)
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}
