package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure observed by the client core.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindLocalExpiry  Kind = "local_expiry"
	KindRejected     Kind = "rejected"
)

// Generic user-facing messages.
const (
	MsgNetwork      = "unable to reach the server, please check your connection"
	MsgUnauthorized = "your session has expired, please sign in again"
	MsgServer       = "something went wrong, please try again later"
	MsgValidation   = "the submitted data is invalid, please check and try again"
	MsgCredentials  = "invalid email or password"
)

// ClientError is the typed error surfaced by the gateway and the managers.
type ClientError struct {
	Kind    Kind
	Status  int
	Message string
	Details map[string]any
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport failure where no response was received.
func NewNetworkError(err error) error {
	return &ClientError{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

func NewUnauthorizedError(message string) error {
	if message == "" {
		message = MsgUnauthorized
	}
	return &ClientError{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// NewValidationError builds a validation failure; an empty message falls back to MsgValidation.
func NewValidationError(status int, message string, details map[string]any) error {
	if message == "" {
		message = MsgValidation
	}
	return &ClientError{Kind: KindValidation, Status: status, Message: message, Details: details}
}

func NewServerError(status int) error {
	return &ClientError{Kind: KindServer, Status: status, Message: MsgServer}
}

func NewRejectedError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &ClientError{Kind: KindRejected, Status: status, Message: message}
}

// NewLocalExpiryError reports a session that expired by the client's own clock.
func NewLocalExpiryError() error {
	return &ClientError{Kind: KindLocalExpiry, Message: MsgUnauthorized}
}

// KindOf returns the classification of err, or "" when err is not a ClientError.
func KindOf(err error) Kind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNetwork(err error) bool {
	return IsKind(err, KindNetwork)
}

func IsUnauthorized(err error) bool {
	return IsKind(err, KindUnauthorized)
}

// DomainError standardizes errors rendered by the reference backend.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewBadRequest(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewConflict(message string) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
