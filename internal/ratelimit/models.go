// Package ratelimit throttles governance writes per actor. Counters live in
// Redis when configured so every replica shares them; an in-memory sliding
// window takes over while Redis is unhealthy.
package ratelimit

import (
	"net/http"
	"time"
)

// Class groups endpoints that share a budget.
type Class string

const (
	ClassRead  Class = "read"
	ClassWrite Class = "write"
)

// ClassOf maps a request method onto its budget.
func ClassOf(method string) Class {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limit is a request budget over a window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result is the outcome of one check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
	Degraded   bool
}

func key(class Class, subject string) string {
	return "civitas:ratelimit:" + string(class) + ":" + subject
}
