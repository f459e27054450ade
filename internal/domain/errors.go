// Package domain holds the call quality-control model: staff (managers,
// auditors, counsellors), calls with their AI analysis, audit reports and
// the analytics read models built from them.
//
// Domain errors describe business failures. The HTTP adapter maps each
// sentinel onto a status code.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError names the missing staff member, call or audit report.
// Message, when set, is shown to the caller verbatim, as in
// "Manager not found".
type NotFoundError struct {
	Entity  string
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.ID != "":
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	default:
		return e.Entity + " not found"
	}
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewNotFoundErrorWithMessage(entity, id, message string) error {
	return &NotFoundError{Entity: entity, ID: id, Message: message}
}

// ConflictError reports a uniqueness clash, such as a second staff member
// registering with a taken email.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

func (e *ConflictError) Error() string {
	msg := e.Entity + " conflict: " + e.Reason
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}

	return msg
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

func NewConflictErrorWithDetails(entity, reason, details string) error {
	return &ConflictError{Entity: entity, Reason: reason, Details: details}
}

// ValidationError rejects caller input. Field is the form field name when
// one field is at fault. Value is kept for logs only.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ForbiddenError is an authenticated caller acting outside its own staff,
// for example an auditor approving a call assigned to someone else.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	switch {
	case e.Operation == "":
		return e.Reason
	case e.Reason == "":
		return fmt.Sprintf("operation %q forbidden", e.Operation)
	default:
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError is a dependency failure: the database, object storage
// or one of the AI providers.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("service %q unavailable", e.Service)
	}

	return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// UnauthorizedError carries the message shown to a caller without a valid
// session, such as "Invalid credentials".
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}

	return e.Reason
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

func NewUnauthorizedError(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool  { return errors.Is(err, ErrUnavailable) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
