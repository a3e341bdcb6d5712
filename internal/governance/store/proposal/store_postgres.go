package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civitas/internal/governance/models"
	"civitas/internal/platform/postgres"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

// PostgresStore persists proposals. The partial unique index
// uq_proposals_one_pending enforces one pending proposal per (community, law);
// terminal transitions are single conditional UPDATEs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const proposalColumns = `
	id, community_id, proposer_id, law_kind, governance_kind, status, metadata,
	created_at, expires_at, resolved_at, resolution_notes,
	execution_state, execution_attempts, execution_claimed_at`

func (s *PostgresStore) CreatePending(ctx context.Context, p *models.Proposal) error {
	metadata, err := json.Marshal(p.Metadata.Clone())
	if err != nil {
		return fmt.Errorf("marshal proposal metadata: %w", err)
	}
	query := `
		INSERT INTO proposals (
			id, community_id, proposer_id, law_kind, governance_kind, status, metadata,
			created_at, expires_at, resolution_notes, execution_state, execution_attempts
		)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8, '', $9, 0)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		p.CommunityID.String(),
		p.ProposerID.String(),
		p.LawKind.String(),
		p.GovernanceKind.String(),
		metadata,
		p.CreatedAt,
		p.ExpiresAt,
		string(models.ExecutionNone),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	p, err := scanProposal(s.db.QueryRowContext(ctx, query, uuid.UUID(proposalID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByCommunity(ctx context.Context, communityID id.CommunityID, statuses []models.Status) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE community_id = $1`
	args := []any{communityID.String()}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = st.String()
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY created_at DESC, id`
	return s.query(ctx, "list proposals", query, args...)
}

func (s *PostgresStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + `
		FROM proposals
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at, id
		LIMIT $2`
	return s.query(ctx, "list expired proposals", query, now, limit)
}

func (s *PostgresStore) Transition(ctx context.Context, t models.Transition) (bool, error) {
	var claimedAt *time.Time
	if t.To == models.StatusPassed {
		claimedAt = &t.ResolvedAt
	}
	query := `
		UPDATE proposals
		SET status = $2, resolved_at = $3, resolution_notes = $4,
			execution_state = $5, execution_attempts = $6, execution_claimed_at = $7
		WHERE id = $1 AND status = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(t.ProposalID),
		t.To.String(),
		t.ResolvedAt,
		t.Notes,
		string(t.ExecutionState()),
		t.ExecutionAttempts(),
		claimedAt,
	)
	if err != nil {
		return false, fmt.Errorf("transition proposal: %w", err)
	}
	return affectedOne(res, "transition proposal")
}

func (s *PostgresStore) RecordExecution(ctx context.Context, rec models.ExecutionRecord) (bool, error) {
	query := `
		UPDATE proposals
		SET execution_state = $3,
			resolution_notes = CASE
				WHEN $4::text = '' THEN resolution_notes
				WHEN resolution_notes = '' THEN $4::text
				ELSE resolution_notes || '; ' || $4::text
			END
		WHERE id = $1 AND status = 'passed' AND execution_attempts = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rec.ProposalID),
		rec.Attempt,
		string(rec.State),
		rec.Note,
	)
	if err != nil {
		return false, fmt.Errorf("record execution: %w", err)
	}
	return affectedOne(res, "record execution")
}

func (s *PostgresStore) ListRedispatchable(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + `
		FROM proposals
		WHERE status = 'passed'
			AND execution_attempts < $2
			AND (execution_state = 'failed'
				OR (execution_state = 'pending' AND execution_claimed_at <= $1))
		ORDER BY resolved_at, id
		LIMIT $3`
	return s.query(ctx, "list redispatchable proposals", query, staleBefore, maxAttempts, limit)
}

func (s *PostgresStore) ClaimExecution(ctx context.Context, proposalID id.ProposalID, observedAttempts int, now time.Time) (bool, error) {
	query := `
		UPDATE proposals
		SET execution_attempts = execution_attempts + 1,
			execution_state = 'pending',
			execution_claimed_at = $3
		WHERE id = $1 AND status = 'passed' AND execution_attempts = $2
			AND execution_state IN ('failed', 'pending')
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(proposalID), observedAttempts, now)
	if err != nil {
		return false, fmt.Errorf("claim execution: %w", err)
	}
	return affectedOne(res, "claim execution")
}

func (s *PostgresStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var (
		p              models.Proposal
		pid            uuid.UUID
		community      string
		proposer       string
		law            string
		governance     string
		status         string
		metadata       []byte
		resolvedAt     sql.NullTime
		executionState string
		claimedAt      sql.NullTime
	)
	if err := row.Scan(
		&pid,
		&community,
		&proposer,
		&law,
		&governance,
		&status,
		&metadata,
		&p.CreatedAt,
		&p.ExpiresAt,
		&resolvedAt,
		&p.ResolutionNotes,
		&executionState,
		&p.ExecutionAttempts,
		&claimedAt,
	); err != nil {
		return nil, err
	}
	p.ID = id.ProposalID(pid)
	p.CommunityID = id.CommunityID(community)
	p.ProposerID = id.ActorID(proposer)
	p.LawKind = models.LawKind(law)
	p.GovernanceKind = models.GovernanceKind(governance)
	p.Status = models.Status(status)
	p.ExecutionState = models.ExecutionState(executionState)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if p.Metadata == nil {
		p.Metadata = models.Metadata{}
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		p.ResolvedAt = &t
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		p.ExecutionClaimedAt = &t
	}
	return &p, nil
}

func affectedOne(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n == 1, nil
}
