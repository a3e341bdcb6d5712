package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"civitas/internal/community"
	"civitas/internal/governance/executor"
	govmetrics "civitas/internal/governance/metrics"
	"civitas/internal/governance/ports"
	"civitas/internal/governance/rules"
	"civitas/internal/governance/service"
	"civitas/internal/governance/store/proposal"
	"civitas/internal/governance/store/vote"
	"civitas/internal/platform/config"
	kafkaclient "civitas/internal/platform/kafka"
	"civitas/internal/platform/postgres"
	redisclient "civitas/internal/platform/redis"
	"civitas/internal/ratelimit"
	"civitas/pkg/platform/audit"
	"civitas/pkg/platform/audit/publisher"
	kafkaaudit "civitas/pkg/platform/audit/publishers/kafka"
	auditmemory "civitas/pkg/platform/audit/store/memory"
	auditpostgres "civitas/pkg/platform/audit/store/postgres"
)

// communityBackend is what the bundled community stores provide.
type communityBackend interface {
	ports.MembershipProvider
	ports.CommunityService
	ports.ConflictService
	community.Writer
}

// app owns every long-lived dependency of a process.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	db    *sql.DB
	redis *redisclient.Client
	kafka *kafkaclient.Client

	rules     *rules.Registry
	limiter   *ratelimit.Limiter
	community communityBackend
	rankCache *community.RankCache
	service   *service.Service
	metrics   *govmetrics.Metrics

	closers []func()
}

type appOptions struct {
	metrics     *govmetrics.Metrics
	rateMetrics *ratelimit.Metrics
	// registerer receives backend pool collectors; nil skips them.
	registerer prometheus.Registerer
}

// newApp connects to the configured backends. Without DATABASE_URL every
// store is in-memory and state lives only as long as the process.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, opts appOptions) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, metrics: opts.metrics}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.rules, err = rules.FromPath(cfg.Governance.RulesPath); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	var (
		proposals service.ProposalStore
		votes     service.VoteStore
		auditSink audit.Store
	)
	if cfg.Database.URL != "" {
		a.db, err = postgres.Open(ctx, cfg.Database.URL, postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = a.db.Close() })
		a.register(opts.registerer, collectors.NewDBStatsCollector(a.db, "civitas"))
		proposals = proposal.NewPostgres(a.db)
		votes = vote.NewPostgres(a.db)
		a.community = community.NewPostgres(a.db)
		auditSink = auditpostgres.New(a.db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		proposals = proposal.NewInMemory()
		votes = vote.NewInMemory()
		a.community = community.NewInMemory()
		auditSink = auditmemory.NewInMemoryStore()
	}

	var (
		members   ports.MembershipProvider = a.community
		rateStore ratelimit.Store
	)
	if a.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if a.redis != nil {
		a.closers = append(a.closers, func() { _ = a.redis.Close() })
		a.register(opts.registerer, redisclient.NewPoolCollector(a.redis))
		a.rankCache = community.NewRankCache(a.community, a.redis.Client,
			community.WithTTL(cfg.Redis.RankCacheTTL, 0),
			community.WithCacheLogger(logger),
		)
		members = a.rankCache
		rateStore = ratelimit.NewRedisStore(a.redis.Client)
	}
	if !cfg.RateLimit.Disabled {
		limiterOpts := []ratelimit.Option{
			ratelimit.WithLimit(ratelimit.ClassWrite, ratelimit.Limit{Requests: cfg.RateLimit.WritesPerMinute, Window: time.Minute}),
			ratelimit.WithLimit(ratelimit.ClassRead, ratelimit.Limit{Requests: cfg.RateLimit.ReadsPerMinute, Window: time.Minute}),
			ratelimit.WithLogger(logger),
		}
		if opts.rateMetrics != nil {
			limiterOpts = append(limiterOpts, ratelimit.WithMetrics(opts.rateMetrics))
		}
		a.limiter = ratelimit.NewLimiter(rateStore, limiterOpts...)
	}

	if a.kafka, err = kafkaclient.New(ctx, cfg.Kafka); err != nil {
		return nil, err
	}
	if a.kafka != nil {
		a.closers = append(a.closers, a.kafka.Close)
		if err := kafkaaudit.EnsureTopic(ctx, a.kafka.Admin, cfg.Kafka.AuditTopic, 6, 1); err != nil {
			logger.Warn("audit topic not ensured", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		auditSink = kafkaaudit.New(a.kafka, cfg.Kafka.AuditTopic,
			kafkaaudit.WithLogger(logger),
			kafkaaudit.WithFallback(auditSink),
		)
	}
	// Emit only enqueues; Close drains what is left.
	auditPublisher := publisher.NewPublisher(auditSink, publisher.WithLogger(logger), publisher.WithAsyncBuffer(1024))
	a.closers = append(a.closers, auditPublisher.Close)

	dispatcher, err := executor.Default(a.community, a.community, a.rules.GovernanceKinds()...)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	gov := cfg.Governance
	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithAuditPublisher(auditPublisher),
		service.WithSweep(gov.SweepBatchSize, gov.SweepConcurrency),
		service.WithRedispatch(gov.RedispatchStaleAfter, gov.RedispatchMaxAttempt),
		service.WithDispatchTimeout(gov.DispatchTimeout),
	}
	if a.metrics != nil {
		svcOpts = append(svcOpts, service.WithMetrics(a.metrics))
	}
	if gov.RedispatchRate > 0 {
		svcOpts = append(svcOpts, service.WithRedispatchRate(rate.NewLimiter(rate.Limit(gov.RedispatchRate), 1)))
	}
	a.service = service.New(proposals, votes, a.rules, a.community, members, dispatcher, svcOpts...)
	return a, nil
}

// memberWriter is the write path for community and rank changes. With the
// rank cache enabled it evicts every rank it writes.
func (a *app) memberWriter() community.Writer {
	if a.rankCache == nil {
		return a.community
	}
	return community.NewInvalidatingWriter(a.community, a.rankCache)
}

func (a *app) register(reg prometheus.Registerer, c prometheus.Collector) {
	if reg == nil {
		return
	}
	if err := reg.Register(c); err != nil {
		a.logger.Warn("metrics collector not registered", "error", err)
	}
}

// Health pings every configured backend.
func (a *app) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
