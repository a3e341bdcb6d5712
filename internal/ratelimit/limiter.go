package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"civitas/pkg/platform/circuit"
)

// Store counts requests against a limit.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (Result, error)
}

// Limiter checks the primary store and falls back to memory while the
// breaker is open.
type Limiter struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limits   map[Class]Limit
	metrics  *Metrics
	logger   *slog.Logger
}

type Option func(*Limiter)

func WithLimit(class Class, limit Limit) Option {
	return func(l *Limiter) {
		if limit.Requests > 0 && limit.Window > 0 {
			l.limits[class] = limit
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(l *Limiter) {
		l.breaker = b
	}
}

// NewLimiter builds a limiter over primary. A nil primary means memory only.
func NewLimiter(primary Store, opts ...Option) *Limiter {
	l := &Limiter{
		primary:  primary,
		fallback: NewMemoryStore(),
		limits: map[Class]Limit{
			ClassRead:  {Requests: 600, Window: time.Minute},
			ClassWrite: {Requests: 60, Window: time.Minute},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.primary == nil {
		l.primary = l.fallback
	}
	if l.breaker == nil {
		l.breaker = circuit.New("ratelimit-store", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(3))
	}
	return l
}

// Check counts one request by subject in class.
func (l *Limiter) Check(ctx context.Context, class Class, subject string) (Result, error) {
	limit, ok := l.limits[class]
	if !ok {
		return Result{Allowed: true}, nil
	}
	k := key(class, subject)

	if l.breaker.Allow() {
		res, err := l.primary.Allow(ctx, k, limit)
		if err == nil {
			if _, change := l.breaker.RecordSuccess(); change.Closed {
				l.logger.InfoContext(ctx, "rate limit store recovered")
			}
			l.observe(class, res)
			return res, nil
		}
		useFallback, change := l.breaker.RecordFailure()
		if change.Opened {
			l.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback", "error", err)
		}
		if !useFallback {
			return Result{}, err
		}
	}

	res, err := l.fallback.Allow(ctx, k, limit)
	res.Degraded = true
	l.observe(class, res)
	return res, err
}

func (l *Limiter) observe(class Class, res Result) {
	if l.metrics == nil {
		return
	}
	outcome := "allowed"
	if !res.Allowed {
		outcome = "rejected"
	}
	l.metrics.Checks.WithLabelValues(string(class), outcome).Inc()
}
