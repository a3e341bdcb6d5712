// Package sweeper drives the periodic resolution and redispatch passes.
// Several sweepers may run against the same store; correctness rests on the
// store's conditional transitions, not on coordination between them.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Engine is the subset of the governance service the sweeper drives.
type Engine interface {
	ResolveExpired(ctx context.Context) (int, error)
	Redispatch(ctx context.Context) (int, error)
}

// Result summarises one tick.
type Result struct {
	Resolved     int
	Redispatched int
}

type Sweeper struct {
	engine   Engine
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(engine Engine, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// Pass failures are logged; they never stop the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.WarnContext(ctx, "sweep pass incomplete",
			"error", err,
			"resolved", res.Resolved,
			"redispatched", res.Redispatched,
		)
		return
	}
	if res.Resolved > 0 || res.Redispatched > 0 {
		s.logger.InfoContext(ctx, "sweep pass finished",
			"resolved", res.Resolved,
			"redispatched", res.Redispatched,
		)
	}
}

// RunOnce resolves expired proposals and then retries failed executions.
// Redispatch runs even when resolution reported errors.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	var res Result
	resolved, resolveErr := s.engine.ResolveExpired(ctx)
	res.Resolved = resolved
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	redispatched, redispatchErr := s.engine.Redispatch(ctx)
	res.Redispatched = redispatched
	return res, errors.Join(resolveErr, redispatchErr)
}
