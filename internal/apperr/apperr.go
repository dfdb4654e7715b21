// Package apperr defines the domain error types returned by the service
// layer and their mapping onto the wire error payload {error, details, type}.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the "type" tag carried in error payloads.
type Kind string

const (
	KindValidation Kind = "validation"
	KindGlue       Kind = "glue"
	KindS3         Kind = "s3"
	KindServer     Kind = "server"
)

// Payload is the wire shape of every error response.
type Payload struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Type    Kind   `json:"type"`
}

// ValidationError reports bad or missing input. Always a 400.
type ValidationError struct {
	Msg     string
	Details string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports an unknown job run or a missing prior record. 404.
type NotFoundError struct {
	Msg     string
	Details string
	Kind    Kind
}

func (e *NotFoundError) Error() string { return e.Msg }

// ConfigurationError reports a referenced backend entity (e.g. a Glue job
// definition) that does not exist. 500, since the request itself was fine.
type ConfigurationError struct {
	Msg     string
	Details string
	Kind    Kind
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ServiceError reports a backend client or transport failure. 500.
type ServiceError struct {
	Msg  string
	Kind Kind
	Err  error
}

func (e *ServiceError) Error() string { return e.Msg + ": " + e.Err.Error() }
func (e *ServiceError) Unwrap() error { return e.Err }

// Validation builds a ValidationError.
func Validation(msg, details string) *ValidationError {
	return &ValidationError{Msg: msg, Details: details}
}

// NotFound builds a NotFoundError with the given payload kind.
func NotFound(kind Kind, msg, details string) *NotFoundError {
	return &NotFoundError{Msg: msg, Details: details, Kind: kind}
}

// Configuration builds a ConfigurationError with the given payload kind.
func Configuration(kind Kind, msg, details string) *ConfigurationError {
	return &ConfigurationError{Msg: msg, Details: details, Kind: kind}
}

// Service wraps a backend error with a client-facing message.
func Service(kind Kind, msg string, err error) *ServiceError {
	return &ServiceError{Msg: msg, Kind: kind, Err: err}
}

// Status returns the HTTP status code for err.
func Status(err error) int {
	var (
		ve *ValidationError
		ne *NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ne):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Wire maps err onto the error payload. Unknown errors are reported as
// an internal server error; the underlying message stays in details.
func Wire(err error) Payload {
	var (
		ve *ValidationError
		ne *NotFoundError
		ce *ConfigurationError
		se *ServiceError
	)
	switch {
	case errors.As(err, &ve):
		return Payload{Error: ve.Msg, Details: ve.Details, Type: KindValidation}
	case errors.As(err, &ne):
		return Payload{Error: ne.Msg, Details: ne.Details, Type: ne.Kind}
	case errors.As(err, &ce):
		return Payload{Error: ce.Msg, Details: ce.Details, Type: ce.Kind}
	case errors.As(err, &se):
		return Payload{Error: se.Msg, Details: se.Err.Error(), Type: se.Kind}
	default:
		return Payload{Error: "Internal server error", Details: err.Error(), Type: KindServer}
	}
}
