// Package kafka publishes audit events to a Kafka topic, keyed by proposal id
// so every event for one proposal lands on the same partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "civitas/pkg/platform/audit"
	"civitas/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher writes events to Kafka. While the breaker is open, events go to
// the fallback store instead (the log by default).
type Publisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	fallback audit.Store
	logger   *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// WithFallback sets where events go when Kafka is unavailable.
func WithFallback(store audit.Store) Option {
	return func(p *Publisher) {
		p.fallback = store
	}
}

func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.breaker == nil {
		p.breaker = circuit.New("kafka-audit")
	}
	if p.fallback == nil {
		p.fallback = logStore{logger: p.logger}
	}
	return p
}

// wireEvent is the JSON payload on the topic.
type wireEvent struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
	Action      string `json:"action"`
	CommunityID string `json:"community_id,omitempty"`
	ProposalID  string `json:"proposal_id,omitempty"`
	ActorID     string `json:"actor_id,omitempty"`
	LawKind     string `json:"law_kind,omitempty"`
	Decision    string `json:"decision,omitempty"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// Append makes the publisher an audit.Store so it can be drained from an
// async publisher.Publisher buffer.
func (p *Publisher) Append(ctx context.Context, event audit.Event) error {
	return p.Emit(ctx, event)
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	event = event.Normalize(time.Now())

	if !p.breaker.Allow() {
		return p.fallback.Append(ctx, event)
	}

	payload, err := json.Marshal(wireEvent{
		ID:          event.ID.String(),
		Category:    string(event.Category),
		Timestamp:   event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:      event.Action,
		CommunityID: event.CommunityID,
		ProposalID:  event.ProposalID,
		ActorID:     event.ActorID,
		LawKind:     event.LawKind,
		Decision:    event.Decision,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := event.ProposalID
	if key == "" {
		key = event.ID.String()
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}

	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		_, change := p.breaker.RecordFailure()
		if change.Opened {
			p.logger.WarnContext(ctx, "audit circuit opened, falling back",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
		if fbErr := p.fallback.Append(ctx, event); fbErr != nil {
			return errors.Join(fmt.Errorf("produce audit event: %w", err), fbErr)
		}
		return nil
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "audit circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, adm *kadm.Client, topic string, partitions int32, replication int16) error {
	_, err := adm.CreateTopic(ctx, partitions, replication, nil, topic)
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

// logStore is the default fallback: the event becomes a structured log line.
type logStore struct {
	logger *slog.Logger
}

func (l logStore) Append(ctx context.Context, event audit.Event) error {
	l.logger.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"audit_fallback", true,
		"event_id", event.ID.String(),
		"category", string(event.Category),
		"community_id", event.CommunityID,
		"proposal_id", event.ProposalID,
		"actor_id", event.ActorID,
		"law_kind", event.LawKind,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
	return nil
}
