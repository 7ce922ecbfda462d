// Package errors provides the structured failure taxonomy shared by the gateway and the guard.
//
// Overview:
//   - Responsibility: Classify outbound call failures and carry status/application codes
//   - Key Types: Code for classification, E for structured errors, Builder for fluent construction
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Compatible with standard library wrapping (errors.Is / errors.As)
//   - Performance Notes: Plain value types, no reflection
//
// Usage:
//
//	err := errors.Build(errors.CodeHTTPStatus).WithOp("GET /auth/me").WithStatus(401).Err()
//	if errors.StatusOf(err) == 401 { ... }
//	if errors.Retryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code represents a failure classification.
type Code string

// Failure classes produced by the HTTP gateway.
const (
	// CodeConnection means no HTTP response was received at all.
	CodeConnection Code = "CONNECTION"
	// CodeApplication means a response arrived but its envelope code was not 200.
	CodeApplication Code = "APPLICATION"
	// CodeHTTPStatus means the transport answered with a 4xx/5xx status.
	CodeHTTPStatus Code = "HTTP_STATUS"
)

// Local failure classes used outside the wire taxonomy.
const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeInternal         Code = "INTERNAL"
)

// E represents a structured error with code, operation, message, and transport details.
type E struct {
	Code    Code   // Failure classification
	Op      string // Operation that failed (e.g. "GET /auth/me")
	Err     error  // Underlying error (may be nil)
	Msg     string // Human-readable message (server message when available)
	Status  int    // HTTP status for CodeHTTPStatus, 0 otherwise
	AppCode int    // Envelope code for CodeApplication, 0 otherwise
	Details []any  // Additional structured details
}

// Error implements the error interface.
func (e *E) Error() string {
	prefix := string(e.Code)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", prefix, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix
	}
}

// Unwrap returns the underlying error for error unwrapping.
func (e *E) Unwrap() error {
	return e.Err
}

// New creates a new structured error with the given code and message.
func New(code Code, msg string) error {
	return &E{Code: code, Msg: msg}
}

// Wrap creates a new structured error wrapping an existing error.
func Wrap(code Code, op string, err error) error {
	return &E{Code: code, Op: op, Err: err}
}

// Wrapf creates a new structured error wrapping an existing error with a formatted message.
func Wrapf(code Code, op string, err error, format string, args ...any) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the failure code from an error.
// Returns empty string if the error doesn't carry one.
func CodeOf(err error) Code {
	var e *E
	if err != nil && errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *E
	if err != nil && errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// AppCodeOf returns the envelope code carried by err, or 0.
func AppCodeOf(err error) int {
	var e *E
	if err != nil && errors.As(err, &e) {
		return e.AppCode
	}
	return 0
}

// MessageOf returns the human-readable message of the outermost structured error.
// Falls back to err.Error() for foreign errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

// IsUnauthenticated reports whether err is a 401, either at transport level
// or embedded in the response envelope.
func IsUnauthenticated(err error) bool {
	return StatusOf(err) == 401 || AppCodeOf(err) == 401 || IsCode(err, CodeUnauthenticated)
}

// Retryable reports whether the gateway may retry after err.
// Only connection failures qualify.
func Retryable(err error) bool {
	return IsCode(err, CodeConnection)
}

// As is a convenience wrapper around the standard library's errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a convenience wrapper around the standard library's errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Builder provides a fluent interface for constructing errors.
type Builder struct {
	e E
}

// Build starts a new error with the given code.
func Build(code Code) *Builder {
	return &Builder{e: E{Code: code}}
}

// WithOp sets the operation that failed.
func (b *Builder) WithOp(op string) *Builder {
	b.e.Op = op
	return b
}

// WithErr wraps an underlying error.
func (b *Builder) WithErr(err error) *Builder {
	b.e.Err = err
	return b
}

// WithMsg sets a human-readable message.
func (b *Builder) WithMsg(msg string) *Builder {
	b.e.Msg = msg
	return b
}

// WithStatus records the HTTP status.
func (b *Builder) WithStatus(status int) *Builder {
	b.e.Status = status
	return b
}

// WithAppCode records the envelope code.
func (b *Builder) WithAppCode(code int) *Builder {
	b.e.AppCode = code
	return b
}

// WithDetails adds structured details to the error.
func (b *Builder) WithDetails(details ...any) *Builder {
	b.e.Details = append(b.e.Details, details...)
	return b
}

// Err builds and returns the error.
func (b *Builder) Err() error {
	e := b.e
	return &e
}
