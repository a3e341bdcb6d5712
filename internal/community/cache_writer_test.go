package community

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitas/internal/governance/models"
	id "civitas/pkg/domain"
)

// recordingInvalidator notes evictions and whether a transaction was open
// when each happened.
type recordingInvalidator struct {
	evicted []string
	inTx    []bool
	err     error
	txOpen  *bool
}

func (r *recordingInvalidator) Invalidate(_ context.Context, community id.CommunityID, actor id.ActorID) error {
	r.evicted = append(r.evicted, community.String()+"/"+actor.String())
	if r.txOpen != nil {
		r.inTx = append(r.inTx, *r.txOpen)
	}
	return r.err
}

func demotionSeed() *Seed {
	return &Seed{
		Communities: []Community{{ID: "north", GovernanceKind: models.GovernanceMonarchy, LeaderID: "king"}},
		Members: []Member{
			{CommunityID: "north", ActorID: "king", Rank: 0},
			{CommunityID: "north", ActorID: "duke", Rank: 9},
		},
	}
}

func TestInvalidatingWriter_EvictsEveryWrittenMember(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	cache := &recordingInvalidator{}

	require.NoError(t, demotionSeed().Apply(ctx, NewInvalidatingWriter(store, cache)))

	assert.Equal(t, []string{"north/king", "north/duke"}, cache.evicted)
	rank, err := store.Rank(ctx, "north", "duke")
	require.NoError(t, err)
	assert.Equal(t, models.RankTier(9), rank)
}

func TestInvalidatingWriter_EvictsAfterCommit(t *testing.T) {
	store, mock := newMockStore(t)
	txOpen := false
	cache := &recordingInvalidator{txOpen: &txOpen}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communities")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO community_members")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO community_members")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := NewInvalidatingWriter(store, cache)
	err := w.WithinTx(context.Background(), func(ctx context.Context) error {
		txOpen = true
		defer func() { txOpen = false }()
		return demotionSeed().apply(ctx, w)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []string{"north/king", "north/duke"}, cache.evicted)
	assert.Equal(t, []bool{false, false}, cache.inTx)
}

func TestInvalidatingWriter_NoEvictionOnRollback(t *testing.T) {
	store, mock := newMockStore(t)
	cache := &recordingInvalidator{}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO communities")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := demotionSeed().Apply(context.Background(), NewInvalidatingWriter(store, cache))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, cache.evicted)
}

func TestInvalidatingWriter_ReportsEvictionFailure(t *testing.T) {
	cache := &recordingInvalidator{err: errors.New("redis down")}
	err := demotionSeed().Apply(context.Background(), NewInvalidatingWriter(NewInMemory(), cache))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evict cached rank north/king")
}
