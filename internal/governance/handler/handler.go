// Package handler exposes the governance engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"civitas/internal/governance/models"
	"civitas/internal/governance/service"
	id "civitas/pkg/domain"
	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/platform/httputil"
	"civitas/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the governance engine as the HTTP layer sees it.
type Service interface {
	Propose(ctx context.Context, communityID id.CommunityID, actorID id.ActorID, law models.LawKind, metadata models.Metadata) (*models.Proposal, error)
	GetProposal(ctx context.Context, proposalID id.ProposalID) (*service.ProposalView, error)
	ListProposals(ctx context.Context, communityID id.CommunityID, statuses ...models.Status) ([]service.ProposalView, error)
	ListProposableLaws(ctx context.Context, communityID id.CommunityID, actorID id.ActorID) ([]service.ProposableLaw, error)
	CastVote(ctx context.Context, proposalID id.ProposalID, actorID id.ActorID, choice models.Choice) (*models.Vote, error)
	ListVotes(ctx context.Context, proposalID id.ProposalID) ([]*models.Vote, error)
	Tally(ctx context.Context, proposalID id.ProposalID) (models.Tally, error)
	FastTrack(ctx context.Context, proposalID id.ProposalID, actorID id.ActorID) (*models.Proposal, error)
	ResolveExpired(ctx context.Context) (int, error)
	Redispatch(ctx context.Context) (int, error)
}

// Handler wires governance endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the actor-facing endpoints. The router is expected to run
// the authentication middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/communities/{communityID}", func(r chi.Router) {
		r.Post("/proposals", h.HandlePropose)
		r.Get("/proposals", h.HandleListProposals)
		r.Get("/laws", h.HandleListProposableLaws)
	})
	r.Route("/proposals/{proposalID}", func(r chi.Router) {
		r.Get("/", h.HandleGetProposal)
		r.Post("/votes", h.HandleCastVote)
		r.Get("/votes", h.HandleListVotes)
		r.Get("/tally", h.HandleTally)
		r.Post("/fast-track", h.HandleFastTrack)
	})
}

// RegisterAdmin mounts operator endpoints. The router is expected to run the
// admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/resolve", h.HandleResolve)
	r.Post("/admin/redispatch", h.HandleRedispatch)
}

// HandlePropose handles POST /communities/{communityID}/proposals.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	communityID, ok := h.communityParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProposeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Propose(ctx, communityID, actorID, req.ParsedLawKind(), req.ParsedMetadata())
	if err != nil {
		h.logFailure(ctx, "propose failed", err, "community_id", communityID.String(), "law_kind", req.LawKind)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProposal(p))
}

// HandleListProposals handles GET /communities/{communityID}/proposals. The
// status filter accepts repeated or comma-separated values.
func (h *Handler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	communityID, ok := h.communityParam(w, r)
	if !ok {
		return
	}
	statuses, err := parseStatuses(r.URL.Query()["status"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views, err := h.service.ListProposals(ctx, communityID, statuses...)
	if err != nil {
		h.logFailure(ctx, "list proposals failed", err, "community_id", communityID.String())
		httputil.WriteError(w, err)
		return
	}
	resp := ProposalListResponse{Proposals: make([]*ProposalResponse, 0, len(views))}
	for _, v := range views {
		resp.Proposals = append(resp.Proposals, FromView(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleListProposableLaws handles GET /communities/{communityID}/laws.
func (h *Handler) HandleListProposableLaws(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	communityID, ok := h.communityParam(w, r)
	if !ok {
		return
	}

	laws, err := h.service.ListProposableLaws(ctx, communityID, actorID)
	if err != nil {
		h.logFailure(ctx, "list proposable laws failed", err, "community_id", communityID.String())
		httputil.WriteError(w, err)
		return
	}
	resp := LawListResponse{Laws: make([]*LawResponse, 0, len(laws))}
	for _, l := range laws {
		resp.Laws = append(resp.Laws, FromLaw(l))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetProposal handles GET /proposals/{proposalID}.
func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposalID, ok := h.proposalParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetProposal(ctx, proposalID)
	if err != nil {
		h.logFailure(ctx, "get proposal failed", err, "proposal_id", proposalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromView(*view))
}

// HandleCastVote handles POST /proposals/{proposalID}/votes.
func (h *Handler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	proposalID, ok := h.proposalParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VoteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.service.CastVote(ctx, proposalID, actorID, req.ParsedChoice())
	if err != nil {
		h.logFailure(ctx, "cast vote failed", err, "proposal_id", proposalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromVote(v))
}

// HandleListVotes handles GET /proposals/{proposalID}/votes.
func (h *Handler) HandleListVotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposalID, ok := h.proposalParam(w, r)
	if !ok {
		return
	}
	votes, err := h.service.ListVotes(ctx, proposalID)
	if err != nil {
		h.logFailure(ctx, "list votes failed", err, "proposal_id", proposalID.String())
		httputil.WriteError(w, err)
		return
	}
	resp := VoteListResponse{Votes: make([]*VoteResponse, 0, len(votes))}
	for _, v := range votes {
		resp.Votes = append(resp.Votes, FromVote(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleTally handles GET /proposals/{proposalID}/tally.
func (h *Handler) HandleTally(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proposalID, ok := h.proposalParam(w, r)
	if !ok {
		return
	}
	tally, err := h.service.Tally(ctx, proposalID)
	if err != nil {
		h.logFailure(ctx, "tally failed", err, "proposal_id", proposalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tally)
}

// HandleFastTrack handles POST /proposals/{proposalID}/fast-track.
func (h *Handler) HandleFastTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	proposalID, ok := h.proposalParam(w, r)
	if !ok {
		return
	}
	p, err := h.service.FastTrack(ctx, proposalID, actorID)
	if err != nil {
		h.logFailure(ctx, "fast-track failed", err, "proposal_id", proposalID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProposal(p))
}

// HandleResolve handles POST /admin/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAdmin(w, ctx) {
		return
	}
	start := time.Now()
	n, err := h.service.ResolveExpired(ctx)
	if err != nil {
		h.logFailure(ctx, "resolve expired failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "resolve expired requested",
		"request_id", requestcontext.RequestID(ctx),
		"resolved", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, ResolveResponse{Resolved: n})
}

// HandleRedispatch handles POST /admin/redispatch.
func (h *Handler) HandleRedispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireAdmin(w, ctx) {
		return
	}
	n, err := h.service.Redispatch(ctx)
	if err != nil {
		h.logFailure(ctx, "redispatch failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RedispatchResponse{Attempts: n})
}

func (h *Handler) requireAdmin(w http.ResponseWriter, ctx context.Context) bool {
	if !requestcontext.IsAdmin(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "operator token required"))
		return false
	}
	return true
}

func (h *Handler) requireActor(w http.ResponseWriter, ctx context.Context) (id.ActorID, bool) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return actorID, true
}

func (h *Handler) communityParam(w http.ResponseWriter, r *http.Request) (id.CommunityID, bool) {
	communityID, err := id.ParseCommunityID(chi.URLParam(r, "communityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return communityID, true
}

func (h *Handler) proposalParam(w http.ResponseWriter, r *http.Request) (id.ProposalID, bool) {
	proposalID, err := id.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProposalID{}, false
	}
	return proposalID, true
}

// logFailure logs domain rejections at info and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, kv ...any) {
	kv = append(kv, "request_id", requestcontext.RequestID(ctx), "error", err)
	if dErrors.ClassOf(err) == dErrors.ClassInternal {
		h.logger.ErrorContext(ctx, msg, kv...)
		return
	}
	h.logger.InfoContext(ctx, msg, kv...)
}

func parseStatuses(values []string) ([]models.Status, error) {
	var out []models.Status
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := models.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
	}
	return out, nil
}
