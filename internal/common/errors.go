package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FieldError describes a single invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field-level problems that block a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the field messages in order, ready for a modal list.
func (e *ValidationError) Messages() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

// NewValidationError builds a ValidationError holding a single field problem.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NetworkError reports a failed call to the upstream shop API. Status is zero
// when no response was received.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": network error"
	}
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NotFoundError reports a referenced resource that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// AsAppError maps any error, including the taxonomy above, onto an AppError
// suitable for rendering.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return &AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "please correct the highlighted fields",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
			Details:    valErr.Fields,
		}
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return &AppError{Code: "NOT_FOUND", Message: nfErr.Error(), HTTPStatus: http.StatusNotFound, Err: err}
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return &AppError{Code: "UPSTREAM_UNAVAILABLE", Message: "the shop service is unavailable, please try again", HTTPStatus: http.StatusBadGateway, Err: err}
	}
	return &AppError{Code: "INTERNAL", Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
