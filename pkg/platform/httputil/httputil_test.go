package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civitas/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(fmt.Errorf("connection reset"), dErrors.CodeInternal, "failed to load proposal"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("missing metadata names the fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NewWithFields(dErrors.CodeMissingMetadata, "missing required metadata", "successorId"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "missing_metadata", body.Error)
		assert.Equal(t, []string{"successorId"}, body.Fields)
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})

	t.Run("deadline exceeded maps to timeout", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("query: %w", context.DeadlineExceeded))
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotMember:        http.StatusForbidden,
		dErrors.CodeInsufficientRank: http.StatusForbidden,
		dErrors.CodeUnknownLaw:       http.StatusUnprocessableEntity,
		dErrors.CodeMissingMetadata:  http.StatusUnprocessableEntity,
		dErrors.CodeDuplicatePending: http.StatusConflict,
		dErrors.CodeAlreadyVoted:     http.StatusConflict,
		dErrors.CodeNotPending:       http.StatusConflict,
		dErrors.CodeNotFastTrackable: http.StatusConflict,
		dErrors.CodeExpired:          http.StatusGone,
		dErrors.CodeNotFound:         http.StatusNotFound,
		dErrors.CodeUnauthorized:     http.StatusUnauthorized,
		dErrors.CodeInvalidInput:     http.StatusBadRequest,
		dErrors.CodeExecutionFailed:  http.StatusInternalServerError,
		dErrors.CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), string(code))
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Choice string `json:"choice"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"choice":"yes"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "yes", dst.Choice)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"choice":"yes","extra":1}`))
	err := DecodeJSON(r, &dst)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

type choiceRequest struct {
	Choice string `json:"choice"`
}

func (r *choiceRequest) Validate() error {
	if r.Choice == "" {
		return dErrors.New(dErrors.CodeValidation, "choice is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"choice":"no"}`))
		req, ok := DecodeAndPrepare[choiceRequest](w, r, logger, r.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "no", req.Choice)
	})

	t.Run("validation failure writes the error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		_, ok := DecodeAndPrepare[choiceRequest](w, r, logger, r.Context(), "req-1")
		require.False(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		_, ok := DecodeAndPrepare[choiceRequest](w, r, logger, r.Context(), "req-1")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
