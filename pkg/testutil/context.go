package testutil

import (
	"net/http"

	id "civitas/pkg/domain"
	"civitas/pkg/requestcontext"
)

// WithActor adds an actor ID to the request context, the way the auth
// middleware does for authenticated requests. Invalid IDs are ignored.
func WithActor(req *http.Request, actor string) *http.Request {
	if parsed, err := id.ParseActorID(actor); err == nil {
		return req.WithContext(requestcontext.WithActorID(req.Context(), parsed))
	}
	return req
}

// WithAdmin marks the request as carrying an operator token.
func WithAdmin(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithAdmin(req.Context(), true))
}
