// Package events persists inbound webhook bookkeeping.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderTelnyx tags call-control webhooks.
const ProviderTelnyx = "telnyx"

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProcessedStore records webhook deliveries already handled so platform
// retries get the original reply instead of a second turn.
type ProcessedStore struct {
	db       rowQuerier
	provider string
}

func NewProcessedStore(pool *pgxpool.Pool, provider string) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return newProcessedStore(pool, provider)
}

func newProcessedStore(db rowQuerier, provider string) *ProcessedStore {
	if db == nil {
		panic("events: db required")
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = ProviderTelnyx
	}
	return &ProcessedStore{db: db, provider: provider}
}

// StoredResponse returns the reply recorded for eventID, or nil when the
// event is unknown or its first delivery has not finished yet.
func (s *ProcessedStore) StoredResponse(ctx context.Context, eventID string) ([]byte, error) {
	var body string
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(response::text, '') FROM processed_events WHERE provider = $1 AND event_id = $2`,
		s.provider, eventID,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("events: load response: %w", err)
	}
	if body == "" {
		return nil, nil
	}
	return []byte(body), nil
}

// SaveResponse records the reply sent for a claimed event so retries of the
// same delivery can be answered identically.
func (s *ProcessedStore) SaveResponse(ctx context.Context, eventID string, response []byte) error {
	_, err := s.db.Exec(ctx, `
		UPDATE processed_events SET response = $3::jsonb
		WHERE provider = $1 AND event_id = $2
	`, s.provider, eventID, string(response))
	if err != nil {
		return fmt.Errorf("events: save response: %w", err)
	}
	return nil
}

// MarkProcessed claims the event id. It returns false when another delivery
// already claimed it.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	ct, err := s.db.Exec(ctx, `
		INSERT INTO processed_events (provider, event_id, event_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, event_id) DO NOTHING
	`, s.provider, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
