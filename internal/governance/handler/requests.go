package handler

import (
	"strings"

	"civitas/internal/governance/models"
	dErrors "civitas/pkg/domain-errors"
)

// ProposeRequest is the body of POST /communities/{communityID}/proposals.
type ProposeRequest struct {
	LawKind  string            `json:"law_kind"`
	Metadata map[string]string `json:"metadata"`

	parsedLaw models.LawKind
}

// Validate implements httputil.Validatable.
func (r *ProposeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Metadata) > models.MaxMetadataEntries {
		return dErrors.New(dErrors.CodeValidation, "too many metadata entries")
	}
	r.LawKind = strings.TrimSpace(r.LawKind)
	if r.LawKind == "" {
		return dErrors.New(dErrors.CodeValidation, "law_kind is required")
	}
	law, err := models.ParseLawKind(r.LawKind)
	if err != nil {
		return err
	}
	r.parsedLaw = law
	return nil
}

func (r *ProposeRequest) ParsedLawKind() models.LawKind { return r.parsedLaw }

func (r *ProposeRequest) ParsedMetadata() models.Metadata { return models.Metadata(r.Metadata).Clone() }

// VoteRequest is the body of POST /proposals/{proposalID}/votes.
type VoteRequest struct {
	Choice string `json:"choice"`

	parsedChoice models.Choice
}

func (r *VoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	choice, err := models.ParseChoice(r.Choice)
	if err != nil {
		return err
	}
	r.parsedChoice = choice
	return nil
}

func (r *VoteRequest) ParsedChoice() models.Choice { return r.parsedChoice }
