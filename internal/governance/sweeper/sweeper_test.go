package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	resolves    atomic.Int64
	redispatch  atomic.Int64
	resolveErr  error
	resolvedN   int
	redispatchN int
	onResolve   func()
}

func (f *fakeEngine) ResolveExpired(context.Context) (int, error) {
	f.resolves.Add(1)
	if f.onResolve != nil {
		f.onResolve()
	}
	return f.resolvedN, f.resolveErr
}

func (f *fakeEngine) Redispatch(context.Context) (int, error) {
	f.redispatch.Add(1)
	return f.redispatchN, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce(t *testing.T) {
	t.Run("reports both passes", func(t *testing.T) {
		engine := &fakeEngine{resolvedN: 3, redispatchN: 1}
		res, err := New(engine, time.Minute).RunOnce(context.Background())

		require.NoError(t, err)
		assert.Equal(t, Result{Resolved: 3, Redispatched: 1}, res)
	})

	t.Run("redispatch still runs after a resolve error", func(t *testing.T) {
		engine := &fakeEngine{resolvedN: 2, resolveErr: errors.New("one proposal failed")}
		res, err := New(engine, time.Minute).RunOnce(context.Background())

		require.Error(t, err)
		assert.Equal(t, 2, res.Resolved)
		assert.Equal(t, int64(1), engine.redispatch.Load())
	})

	t.Run("cancelled between passes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		engine := &fakeEngine{onResolve: cancel}
		_, err := New(engine, time.Minute).RunOnce(ctx)

		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, engine.redispatch.Load())
	})
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	engine := &fakeEngine{resolveErr: errors.New("transient")}
	s := New(engine, 10*time.Millisecond, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return engine.resolves.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.GreaterOrEqual(t, engine.redispatch.Load(), int64(3))
}
