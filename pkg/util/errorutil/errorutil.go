package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced by the ticket core.
const (
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeDuplicateTicket      = "DUPLICATE_TICKET"
	CodeCategoryNotFound     = "CATEGORY_NOT_FOUND"
	CodeCategoryUnavailable  = "CATEGORY_UNAVAILABLE"
	CodeTicketNotFound       = "TICKET_NOT_FOUND"
	CodeNotATicketChannel    = "NOT_A_TICKET_CHANNEL"
	CodeDeliveryRefused      = "DELIVERY_REFUSED"
	CodeExportDeliveryFailed = "EXPORT_DELIVERY_FAILED"
)

// DomainError standardizes application errors.
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

// Is matches two domain errors by code so callers can compare against the
// sentinel-style constructors with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewDuplicateTicket reports a live ticket already owned by the requester.
func NewDuplicateTicket(requesterID, channelID string) error {
	return NewDomainError(CodeDuplicateTicket, "ticket already open", http.StatusConflict, map[string]any{
		"requester_id": requesterID,
		"channel_id":   channelID,
	})
}

func NewCategoryNotFound(category string) error {
	return NewDomainError(CodeCategoryNotFound, "unknown ticket category", http.StatusBadRequest, map[string]any{
		"category": category,
	})
}

func NewCategoryUnavailable(category string) error {
	return NewDomainError(CodeCategoryUnavailable, "ticket category not configured", http.StatusServiceUnavailable, map[string]any{
		"category": category,
	})
}

func NewTicketNotFound(channelID string) error {
	return NewDomainError(CodeTicketNotFound, "ticket not found", http.StatusNotFound, map[string]any{
		"channel_id": channelID,
	})
}

func NewNotATicketChannel(channelID string) error {
	return NewDomainError(CodeNotATicketChannel, "channel is not linked to an active ticket", http.StatusBadRequest, map[string]any{
		"channel_id": channelID,
	})
}

func NewDeliveryRefused(target string, err error) error {
	return &DomainError{
		Code:       CodeDeliveryRefused,
		Message:    "delivery refused",
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"target": target},
		Err:        err,
	}
}

func NewExportDeliveryFailed(err error) error {
	return &DomainError{
		Code:       CodeExportDeliveryFailed,
		Message:    "export delivery failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
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
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
