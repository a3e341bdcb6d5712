package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers decisions with lasting effect on a community:
	// resolutions and the side effects they trigger.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers failures an operator must look at.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity: proposals opened, votes cast.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          uuid.UUID
	Category    EventCategory
	Timestamp   time.Time
	Action      string
	CommunityID string
	ProposalID  string
	ActorID     string
	LawKind     string
	Decision    string
	Reason      string
	RequestID   string
}

type AuditEvent string

const (
	EventProposalCreated     AuditEvent = "proposal_created"
	EventVoteCast            AuditEvent = "vote_cast"
	EventProposalPassed      AuditEvent = "proposal_passed"
	EventProposalRejected    AuditEvent = "proposal_rejected"
	EventProposalFastTracked AuditEvent = "proposal_fast_tracked"
	EventLawExecuted         AuditEvent = "law_executed"
	EventLawExecutionFailed  AuditEvent = "law_execution_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventProposalCreated:     CategoryOperations,
	EventVoteCast:            CategoryOperations,
	EventProposalPassed:      CategoryCompliance,
	EventProposalRejected:    CategoryCompliance,
	EventProposalFastTracked: CategoryCompliance,
	EventLawExecuted:         CategoryCompliance,
	EventLawExecutionFailed:  CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Normalize fills the ID, category and timestamp when the emitter left them
// empty.
func (e Event) Normalize(now time.Time) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is the emit side consumed by services.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
