package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "civitas/pkg/platform/audit"
)

// Store persists audit events to the audit_events table. Used when no Kafka
// brokers are configured; inserts are idempotent on the event id.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, community_id, proposal_id,
			actor_id, law_kind, decision, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Timestamp,
		event.Action,
		event.CommunityID,
		event.ProposalID,
		event.ActorID,
		event.LawKind,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByProposal returns a proposal's events, oldest first.
func (s *Store) ListByProposal(ctx context.Context, proposalID string) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, action, community_id, proposal_id,
			   actor_id, law_kind, decision, reason, request_id
		FROM audit_events
		WHERE proposal_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
		)
		if err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.Action,
			&event.CommunityID,
			&event.ProposalID,
			&event.ActorID,
			&event.LawKind,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
