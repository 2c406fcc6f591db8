// Package domainerrors defines coded errors that cross the service/transport
// boundary. Handlers and stores attach a Code; httputil translates the code to
// an HTTP status and a stable machine-readable error string.
package domainerrors

import "fmt"

// Code identifies the class of a domain error.
type Code string

const (
	CodeBadRequest  Code = "bad_request"
	CodeNotFound    Code = "not_found"
	CodeConflict    Code = "conflict"
	CodeBadGateway  Code = "bad_gateway"
	CodeUnavailable Code = "service_unavailable"
	CodeInternal    Code = "internal_error"
)

// DomainError carries a code plus a human-readable description.
type DomainError struct {
	Code        Code
	Description string
	cause       error
}

// New builds a DomainError with the given code and description.
func New(code Code, description string) *DomainError {
	return &DomainError{Code: code, Description: description}
}

// Wrap builds a DomainError that preserves the underlying cause for errors.Is.
func Wrap(code Code, description string, cause error) *DomainError {
	return &DomainError{Code: code, Description: description, cause: cause}
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}
