// Package domainerrors defines the coded error taxonomy returned by services.
//
// Stores return sentinel facts (see pkg/platform/sentinel); services translate
// them into coded errors so that transports can map every failure onto a
// specific, actionable response without string matching.
package domainerrors

import (
	"errors"
	"strings"
)

// Code identifies a specific failure kind.
type Code string

const (
	// Authorization
	CodeNotMember        Code = "not_member"
	CodeInsufficientRank Code = "insufficient_rank"

	// Validation
	CodeUnknownLaw      Code = "unknown_law"
	CodeMissingMetadata Code = "missing_metadata"
	CodeValidation      Code = "validation_error"
	CodeInvalidInput    Code = "invalid_input"
	CodeBadRequest      Code = "bad_request"

	// Conflict
	CodeDuplicatePending Code = "duplicate_pending"
	CodeAlreadyVoted     Code = "already_voted"

	// State
	CodeNotPending       Code = "not_pending"
	CodeExpired          Code = "expired"
	CodeNotFastTrackable Code = "not_fast_trackable"

	// Execution
	CodeExecutionFailed Code = "execution_failed"

	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"
)

// Class groups codes into the taxonomy callers branch on.
type Class string

const (
	ClassAuthorization Class = "authorization"
	ClassValidation    Class = "validation"
	ClassConflict      Class = "conflict"
	ClassState         Class = "state"
	ClassExecution     Class = "execution"
	ClassNotFound      Class = "not_found"
	ClassTransport     Class = "transport"
	ClassInternal      Class = "internal"
)

var codeClasses = map[Code]Class{
	CodeNotMember:        ClassAuthorization,
	CodeInsufficientRank: ClassAuthorization,
	CodeUnknownLaw:       ClassValidation,
	CodeMissingMetadata:  ClassValidation,
	CodeValidation:       ClassValidation,
	CodeInvalidInput:     ClassValidation,
	CodeBadRequest:       ClassValidation,
	CodeDuplicatePending: ClassConflict,
	CodeAlreadyVoted:     ClassConflict,
	CodeNotPending:       ClassState,
	CodeExpired:          ClassState,
	CodeNotFastTrackable: ClassState,
	CodeExecutionFailed:  ClassExecution,
	CodeNotFound:         ClassNotFound,
	CodeUnauthorized:     ClassTransport,
	CodeInternal:         ClassInternal,
	CodeTimeout:          ClassInternal,
}

// Class returns the taxonomy class of the code. Unknown codes are internal.
func (c Code) Class() Class {
	if cls, ok := codeClasses[c]; ok {
		return cls
	}
	return ClassInternal
}

// Error is a coded domain error. Fields optionally names the inputs at fault
// (for example the metadata keys that were missing).
type Error struct {
	Code    Code
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// NewWithFields creates a coded error naming the offending fields. The field
// names are appended to the message so logs stay self-describing.
func NewWithFields(code Code, message string, fields ...string) error {
	msg := message
	if len(fields) > 0 {
		msg = message + ": " + strings.Join(fields, ", ")
	}
	return &Error{Code: code, Message: msg, Fields: append([]string(nil), fields...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ClassOf returns the taxonomy class of err's outermost code.
func ClassOf(err error) Class {
	return CodeOf(err).Class()
}

// FieldsOf returns the offending field names carried by err, if any.
func FieldsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return append([]string(nil), de.Fields...)
	}
	return nil
}
