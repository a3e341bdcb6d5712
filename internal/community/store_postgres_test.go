package community

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
	"civitas/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresStore_Rank(t *testing.T) {
	t.Run("member", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT rank FROM community_members")).
			WithArgs("north", "duke").
			WillReturnRows(sqlmock.NewRows([]string{"rank"}).AddRow(1))

		rank, err := store.Rank(context.Background(), "north", "duke")
		require.NoError(t, err)
		assert.Equal(t, models.RankTier(1), rank)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-member", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT rank FROM community_members")).
			WithArgs("north", "stranger").
			WillReturnRows(sqlmock.NewRows([]string{"rank"}))

		_, err := store.Rank(context.Background(), "north", "stranger")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestPostgresStore_CountEligible(t *testing.T) {
	t.Run("empty rank set skips the query", func(t *testing.T) {
		store, mock := newMockStore(t)
		n, err := store.CountEligible(context.Background(), "north", nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("counts matching ranks", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM community_members")).
			WithArgs("north", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		n, err := store.CountEligible(context.Background(), "north", []models.RankTier{0, 1, 2})
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_SaveMember(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"upserts", nil, nil},
		{"unknown community", &pgconn.PgError{Code: "23503"}, sentinel.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			exp := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO community_members")).
				WithArgs("north", "duke", 1)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := store.SaveMember(context.Background(), Member{CommunityID: "north", ActorID: "duke", Rank: 1})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPostgresStore_FindCommunity(t *testing.T) {
	store, mock := newMockStore(t)
	updated := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM communities WHERE id = $1")).
		WithArgs("north").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "governance_kind", "leader_id", "successor_id", "updated_at"}).
			AddRow("north", "North", "MONARCHY", "king", "", updated))

	c, err := store.FindCommunity(context.Background(), "north")
	require.NoError(t, err)
	assert.Equal(t, models.GovernanceMonarchy, c.GovernanceKind)
	assert.Equal(t, id.ActorID("king"), c.LeaderID)
	assert.True(t, c.SuccessorID.IsNil())
	assert.Equal(t, updated, c.UpdatedAt)
}

func TestPostgresStore_SetGovernanceKind(t *testing.T) {
	pid := id.NewProposalID()

	t.Run("updates", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE communities SET governance_kind")).
			WithArgs("north", "DEMOCRACY", uuid.UUID(pid)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, store.SetGovernanceKind(context.Background(), "north", models.GovernanceDemocracy, pid))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown community", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE communities SET governance_kind")).
			WithArgs("nowhere", "DEMOCRACY", uuid.UUID(pid)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		err := store.SetGovernanceKind(context.Background(), "nowhere", models.GovernanceDemocracy, pid)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestPostgresStore_OpenConflict(t *testing.T) {
	pid := id.NewProposalID()

	t.Run("returns conflict id", func(t *testing.T) {
		store, mock := newMockStore(t)
		conflictID := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("south").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO conflicts")).
			WithArgs(sqlmock.AnyArg(), "north", "south", uuid.UUID(pid)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(conflictID.String()))

		got, err := store.OpenConflict(context.Background(), "north", "south", pid)
		require.NoError(t, err)
		assert.Equal(t, conflictID.String(), got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown target", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs("nowhere").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := store.OpenConflict(context.Background(), "north", "nowhere", pid)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSeed_ApplyPostgresInOneTransaction(t *testing.T) {
	seed := &Seed{
		Communities: []Community{{ID: "north", Name: "North", GovernanceKind: models.GovernanceMonarchy, LeaderID: "king"}},
		Members:     []Member{{CommunityID: "north", ActorID: "king", Rank: 0}, {CommunityID: "ghost", ActorID: "duke", Rank: 1}},
	}

	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communities")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO community_members")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO community_members")).WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	err := seed.Apply(context.Background(), store)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
