// Package errors carries the error codes operations answer with and how each
// code maps onto HTTP and retry behavior.
package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadUserInput    Code = "BAD_USER_INPUT"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthenticated Code = "UN_AUTHENTICATED"
	CodeUnauthorized    Code = "UN_AUTHORIZED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeIdempotency     Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
)

// Messages shared by resolvers that must not reveal which check failed.
const (
	MessageUnauthorized = "Forbidden"
	MessageBadInput     = "Bad input"
	MessageNotFound     = "Not found"
)

// Metadata describes how a code is answered. When ExposeMessage is false
// clients only ever see PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeBadUserInput:    {http.StatusBadRequest, false, "bad user input", true, true},
	CodeBadRequest:      {http.StatusBadRequest, false, "bad request", true, true},
	CodeUnauthenticated: {http.StatusUnauthorized, false, "authentication required", true, false},
	CodeUnauthorized:    {http.StatusForbidden, false, "access denied", true, false},
	CodeNotFound:        {http.StatusNotFound, false, "resource not found", true, false},
	CodeIdempotency:     {http.StatusConflict, false, "idempotency key reused", true, true},
	CodeRateLimit:       {http.StatusTooManyRequests, false, "rate limit exceeded", true, false},
	CodeInternal:        {http.StatusInternalServerError, true, "internal server error", false, false},
	CodeDependency:      {http.StatusServiceUnavailable, true, "dependency unavailable", false, true},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error. The message is shown to clients when the code's
// metadata allows it; the cause never is.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost *Error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// Retryable reports whether trying the same work again may succeed. Coded
// errors follow their metadata. Uncoded errors are retryable only for
// timeouts and cancellation.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if typed := As(err); typed != nil {
		return MetadataFor(typed.Code()).Retryable
	}
	if stdErrors.Is(err, context.DeadlineExceeded) || stdErrors.Is(err, context.Canceled) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return stdErrors.As(err, &timeout) && timeout.Timeout()
}

// Unauthorized returns the single authorization failure used by every
// ownership and authenticity check.
func Unauthorized() *Error {
	return New(CodeUnauthorized, MessageUnauthorized)
}

func BadInput() *Error {
	return New(CodeBadUserInput, MessageBadInput)
}
