package community

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"civitas/internal/governance/models"
	"civitas/internal/platform/postgres"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
	"civitas/pkg/platform/tx"
)

// PostgresStore implements the membership, community and conflict ports over
// the communities, community_members and conflicts tables. Effects keyed by a
// proposal are idempotent: governance and successor writes are plain
// overwrites, and conflicts.source_proposal_id is unique.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn in one transaction; store calls made with the ctx passed to
// fn join it.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, fn)
}

func (s *PostgresStore) SaveCommunity(ctx context.Context, c Community) error {
	query := `
		INSERT INTO communities (id, name, governance_kind, leader_id, successor_id, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			governance_kind = EXCLUDED.governance_kind,
			leader_id = EXCLUDED.leader_id,
			successor_id = EXCLUDED.successor_id,
			updated_at = now()
	`
	_, err := tx.Use(ctx, s.db).ExecContext(ctx, query,
		c.ID.String(), c.Name, c.GovernanceKind.String(), c.LeaderID.String(), c.SuccessorID.String())
	if err != nil {
		return fmt.Errorf("save community: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveMember(ctx context.Context, m Member) error {
	query := `
		INSERT INTO community_members (community_id, actor_id, rank)
		VALUES ($1, $2, $3)
		ON CONFLICT (community_id, actor_id) DO UPDATE SET rank = EXCLUDED.rank
	`
	_, err := tx.Use(ctx, s.db).ExecContext(ctx, query, m.CommunityID.String(), m.ActorID.String(), int(m.Rank))
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, community id.CommunityID, actor id.ActorID) error {
	_, err := tx.Use(ctx, s.db).ExecContext(ctx,
		`DELETE FROM community_members WHERE community_id = $1 AND actor_id = $2`,
		community.String(), actor.String())
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCommunity(ctx context.Context, community id.CommunityID) (*Community, error) {
	query := `
		SELECT id, name, governance_kind, COALESCE(leader_id, ''), COALESCE(successor_id, ''), updated_at
		FROM communities WHERE id = $1
	`
	var (
		c                      Community
		cid, gov, leader, succ string
		updatedAt              time.Time
	)
	err := tx.Use(ctx, s.db).QueryRowContext(ctx, query, community.String()).
		Scan(&cid, &c.Name, &gov, &leader, &succ, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find community: %w", err)
	}
	c.ID = id.CommunityID(cid)
	c.GovernanceKind = models.GovernanceKind(gov)
	c.LeaderID = id.ActorID(leader)
	c.SuccessorID = id.ActorID(succ)
	c.UpdatedAt = updatedAt
	return &c, nil
}

func (s *PostgresStore) Rank(ctx context.Context, community id.CommunityID, actor id.ActorID) (models.RankTier, error) {
	var rank int
	err := tx.Use(ctx, s.db).QueryRowContext(ctx,
		`SELECT rank FROM community_members WHERE community_id = $1 AND actor_id = $2`,
		community.String(), actor.String()).Scan(&rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("find member rank: %w", err)
	}
	return models.RankTier(rank), nil
}

func (s *PostgresStore) CountEligible(ctx context.Context, community id.CommunityID, ranks []models.RankTier) (int, error) {
	if len(ranks) == 0 {
		return 0, nil
	}
	values := make([]int64, len(ranks))
	for i, r := range ranks {
		values[i] = int64(r)
	}
	var n int
	err := tx.Use(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM community_members WHERE community_id = $1 AND rank = ANY($2)`,
		community.String(), pq.Array(values)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count eligible members: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GovernanceKind(ctx context.Context, community id.CommunityID) (models.GovernanceKind, error) {
	var gov string
	err := tx.Use(ctx, s.db).QueryRowContext(ctx,
		`SELECT governance_kind FROM communities WHERE id = $1`, community.String()).Scan(&gov)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find governance kind: %w", err)
	}
	return models.GovernanceKind(gov), nil
}

func (s *PostgresStore) SetGovernanceKind(ctx context.Context, community id.CommunityID, kind models.GovernanceKind, proposalID id.ProposalID) error {
	return s.update(ctx, "set governance kind",
		`UPDATE communities SET governance_kind = $2, updated_by = $3, updated_at = now() WHERE id = $1`,
		community.String(), kind.String(), uuid.UUID(proposalID))
}

func (s *PostgresStore) SetSuccessor(ctx context.Context, community id.CommunityID, successor id.ActorID, proposalID id.ProposalID) error {
	return s.update(ctx, "set successor",
		`UPDATE communities SET successor_id = $2, updated_by = $3, updated_at = now() WHERE id = $1`,
		community.String(), successor.String(), uuid.UUID(proposalID))
}

// OpenConflict inserts the conflict or returns the one already opened for
// proposalID.
func (s *PostgresStore) OpenConflict(ctx context.Context, initiator, target id.CommunityID, proposalID id.ProposalID) (string, error) {
	var exists bool
	if err := tx.Use(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM communities WHERE id = $1)`, target.String()).Scan(&exists); err != nil {
		return "", fmt.Errorf("check target community: %w", err)
	}
	if !exists {
		return "", sentinel.ErrNotFound
	}

	query := `
		INSERT INTO conflicts (id, initiator_id, target_id, source_proposal_id, opened_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (source_proposal_id) DO UPDATE SET source_proposal_id = EXCLUDED.source_proposal_id
		RETURNING id
	`
	var conflictID uuid.UUID
	err := tx.Use(ctx, s.db).QueryRowContext(ctx, query,
		uuid.New(), initiator.String(), target.String(), uuid.UUID(proposalID)).Scan(&conflictID)
	if err != nil {
		return "", fmt.Errorf("open conflict: %w", err)
	}
	return conflictID.String(), nil
}

func (s *PostgresStore) update(ctx context.Context, op, query string, args ...any) error {
	res, err := tx.Use(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
