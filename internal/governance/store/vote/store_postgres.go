package vote

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"civitas/internal/governance/models"
	"civitas/internal/platform/postgres"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

// PostgresStore persists votes. UNIQUE (proposal_id, voter_id) makes the
// one-vote rule atomic under concurrent casts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (id, proposal_id, voter_id, voter_rank, choice, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(v.ID),
		uuid.UUID(v.ProposalID),
		v.VoterID.String(),
		int(v.VoterRank),
		string(v.Choice),
		v.CreatedAt,
	)
	if err != nil {
		switch {
		case postgres.IsUniqueViolation(err):
			return sentinel.ErrAlreadyUsed
		case postgres.IsForeignKeyViolation(err):
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) Counts(ctx context.Context, proposalID id.ProposalID) (models.VoteCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE choice = 'yes'),
			COUNT(*) FILTER (WHERE choice = 'no'),
			COUNT(*) FILTER (WHERE choice = 'yes' AND voter_rank = $2)
		FROM votes
		WHERE proposal_id = $1
	`
	var c models.VoteCounts
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(proposalID), int(models.TopRank)).
		Scan(&c.Yes, &c.No, &c.TopRankYes)
	if err != nil {
		return models.VoteCounts{}, fmt.Errorf("count votes: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByProposal(ctx context.Context, proposalID id.ProposalID) ([]*models.Vote, error) {
	query := `
		SELECT id, proposal_id, voter_id, voter_rank, choice, created_at
		FROM votes
		WHERE proposal_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(proposalID))
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var votes []*models.Vote
	for rows.Next() {
		var (
			vid, pid uuid.UUID
			voter    string
			rank     int
			choice   string
			v        models.Vote
		)
		if err := rows.Scan(&vid, &pid, &voter, &rank, &choice, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		v.ID = id.VoteID(vid)
		v.ProposalID = id.ProposalID(pid)
		v.VoterID = id.ActorID(voter)
		v.VoterRank = models.RankTier(rank)
		v.Choice = models.Choice(choice)
		votes = append(votes, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return votes, nil
}
