// Package service implements the governance engine: proposal lifecycle,
// vote ledger, resolution and execution dispatch.
//
// Correctness under concurrent callers and multiple processes rests on the
// stores: a uniqueness guard for pending proposals and votes, and a
// compare-and-swap for every terminal transition and execution attempt. The
// service holds no locks.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"civitas/internal/governance/authz"
	"civitas/internal/governance/executor"
	"civitas/internal/governance/metrics"
	"civitas/internal/governance/models"
	"civitas/internal/governance/ports"
	"civitas/pkg/attrs"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/audit"
	"civitas/pkg/requestcontext"
)

const tracerName = "civitas/governance"

type ProposalStore interface {
	CreatePending(ctx context.Context, p *models.Proposal) error
	FindByID(ctx context.Context, proposalID id.ProposalID) (*models.Proposal, error)
	ListByCommunity(ctx context.Context, communityID id.CommunityID, statuses []models.Status) ([]*models.Proposal, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Proposal, error)
	Transition(ctx context.Context, t models.Transition) (bool, error)
	RecordExecution(ctx context.Context, rec models.ExecutionRecord) (bool, error)
	ListRedispatchable(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*models.Proposal, error)
	ClaimExecution(ctx context.Context, proposalID id.ProposalID, observedAttempts int, now time.Time) (bool, error)
}

type VoteStore interface {
	Insert(ctx context.Context, v *models.Vote) error
	Counts(ctx context.Context, proposalID id.ProposalID) (models.VoteCounts, error)
	ListByProposal(ctx context.Context, proposalID id.ProposalID) ([]*models.Vote, error)
}

type RuleRegistry interface {
	Get(law models.LawKind, gov models.GovernanceKind) (models.GovernanceRule, bool)
	ListProposable(gov models.GovernanceKind, rank models.RankTier) []models.LawKind
}

type Dispatcher interface {
	Dispatch(ctx context.Context, p *models.Proposal) (executor.Result, error)
}

// ProposalView pairs a proposal with its current tally.
type ProposalView struct {
	Proposal *models.Proposal
	Tally    models.Tally
}

// ProposableLaw is a law the caller may propose, with the rule that governs it.
type ProposableLaw struct {
	LawKind models.LawKind
	Rule    models.GovernanceRule
}

// Defaults for sweep and redispatch passes.
const (
	DefaultBatchSize       = 100
	DefaultConcurrency     = 4
	DefaultStaleAfter      = 5 * time.Minute
	DefaultMaxAttempts     = 5
	DefaultDispatchTimeout = 30 * time.Second
)

// Service orchestrates the governance engine.
type Service struct {
	proposals  ProposalStore
	votes      VoteStore
	rules      RuleRegistry
	community  ports.CommunityService
	members    ports.MembershipProvider
	gate       *authz.Gate
	dispatcher Dispatcher

	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	batchSize       int
	concurrency     int
	staleAfter      time.Duration
	maxAttempts     int
	dispatchTimeout time.Duration
	limiter         *rate.Limiter
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSweep bounds each resolve-expired pass to batchSize proposals resolved
// by up to concurrency workers.
func WithSweep(batchSize, concurrency int) Option {
	return func(s *Service) {
		if batchSize > 0 {
			s.batchSize = batchSize
		}
		if concurrency > 0 {
			s.concurrency = concurrency
		}
	}
}

// WithRedispatch sets when a pending execution is presumed crashed and how
// many attempts a proposal gets in total.
func WithRedispatch(staleAfter time.Duration, maxAttempts int) Option {
	return func(s *Service) {
		if staleAfter > 0 {
			s.staleAfter = staleAfter
		}
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
	}
}

// WithRedispatchRate paces redispatch attempts against downstream services.
func WithRedispatchRate(limiter *rate.Limiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

// New constructs a Service.
func New(
	proposals ProposalStore,
	votes VoteStore,
	rules RuleRegistry,
	community ports.CommunityService,
	members ports.MembershipProvider,
	dispatcher Dispatcher,
	opts ...Option,
) *Service {
	s := &Service{
		proposals:       proposals,
		votes:           votes,
		rules:           rules,
		community:       community,
		members:         members,
		gate:            authz.NewGate(members),
		dispatcher:      dispatcher,
		tracer:          otel.Tracer(tracerName),
		batchSize:       DefaultBatchSize,
		concurrency:     DefaultConcurrency,
		staleAfter:      DefaultStaleAfter,
		maxAttempts:     DefaultMaxAttempts,
		dispatchTimeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// begin opens a span and returns a finisher that records latency, the error
// on the span, and domain rejections by code.
func (s *Service) begin(ctx context.Context, op string, kv ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance."+op, trace.WithAttributes(kv...))
	return ctx, func(err error) {
		s.metrics.ObserveOperation(op, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			if dErrors.ClassOf(err) != dErrors.ClassInternal {
				s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
			}
		}
		span.End()
	}
}

// logAudit writes an audit log line and emits the matching audit event.
// Attribute values used for the event must be strings.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:      string(event),
		Timestamp:   requestcontext.Now(ctx),
		CommunityID: attrs.ExtractString(attributes, "community_id"),
		ProposalID:  attrs.ExtractString(attributes, "proposal_id"),
		ActorID:     attrs.ExtractString(attributes, "actor_id"),
		LawKind:     attrs.ExtractString(attributes, "law_kind"),
		Decision:    attrs.ExtractString(attributes, "decision"),
		Reason:      attrs.ExtractString(attributes, "reason"),
		RequestID:   requestID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", string(event), "error", err)
	}
}

func proposalAttrs(p *models.Proposal) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("proposal_id", p.ID.String()),
		attribute.String("community_id", p.CommunityID.String()),
		attribute.String("law_kind", p.LawKind.String()),
	}
}
