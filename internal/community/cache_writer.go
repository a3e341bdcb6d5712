package community

import (
	"context"
	"errors"
	"fmt"

	id "civitas/pkg/domain"
)

// RankInvalidator drops a cached rank. *RankCache implements it.
type RankInvalidator interface {
	Invalidate(ctx context.Context, community id.CommunityID, actor id.ActorID) error
}

type pendingInvalidationsKey struct{}

// InvalidatingWriter forwards writes to a store and evicts the cached rank of
// every member it writes. Inside WithinTx the evictions wait for the commit,
// so a concurrent reader cannot re-cache the pre-transaction rank.
type InvalidatingWriter struct {
	next  Writer
	cache RankInvalidator
}

func NewInvalidatingWriter(next Writer, cache RankInvalidator) *InvalidatingWriter {
	return &InvalidatingWriter{next: next, cache: cache}
}

func (w *InvalidatingWriter) SaveCommunity(ctx context.Context, c Community) error {
	return w.next.SaveCommunity(ctx, c)
}

func (w *InvalidatingWriter) SaveMember(ctx context.Context, m Member) error {
	if err := w.next.SaveMember(ctx, m); err != nil {
		return err
	}
	if pending, ok := ctx.Value(pendingInvalidationsKey{}).(*[]Member); ok {
		*pending = append(*pending, m)
		return nil
	}
	return w.invalidate(ctx, m)
}

// WithinTx runs fn in the wrapped store's transaction when it has one, then
// evicts the members written by fn.
func (w *InvalidatingWriter) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txw, ok := w.next.(transactional)
	if !ok {
		return fn(ctx)
	}
	if _, nested := ctx.Value(pendingInvalidationsKey{}).(*[]Member); nested {
		return txw.WithinTx(ctx, fn)
	}

	var pending []Member
	if err := txw.WithinTx(context.WithValue(ctx, pendingInvalidationsKey{}, &pending), fn); err != nil {
		return err
	}
	var errs []error
	for _, m := range pending {
		errs = append(errs, w.invalidate(ctx, m))
	}
	return errors.Join(errs...)
}

func (w *InvalidatingWriter) invalidate(ctx context.Context, m Member) error {
	if err := w.cache.Invalidate(ctx, m.CommunityID, m.ActorID); err != nil {
		return fmt.Errorf("evict cached rank %s/%s: %w", m.CommunityID, m.ActorID, err)
	}
	return nil
}
