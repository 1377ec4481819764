package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is a status code plus the message key rendered as error.code.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError returns an error rendered with the given status and message key.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest       = HTTPError{Code: http.StatusBadRequest, Key: "http.errors.bad_request"}
	ErrInvalidJSON      = HTTPError{Code: http.StatusBadRequest, Key: "http.errors.invalid_json"}
	ErrUnauthorized     = HTTPError{Code: http.StatusUnauthorized, Key: "http.errors.unauthorized"}
	ErrForbidden        = HTTPError{Code: http.StatusForbidden, Key: "http.errors.forbidden"}
	ErrNotFound         = HTTPError{Code: http.StatusNotFound, Key: "http.errors.not_found"}
	ErrMethodNotAllowed = HTTPError{Code: http.StatusMethodNotAllowed, Key: "http.errors.method_not_allowed"}
	ErrConflict         = HTTPError{Code: http.StatusConflict, Key: "http.errors.conflict"}
	ErrValidation       = HTTPError{Code: http.StatusUnprocessableEntity, Key: "http.errors.validation_failed"}
	ErrTooManyRequests  = HTTPError{Code: http.StatusTooManyRequests, Key: "http.errors.too_many_requests"}

	ErrInternal    = HTTPError{Code: http.StatusInternalServerError, Key: "http.errors.internal"}
	ErrBadGateway  = HTTPError{Code: http.StatusBadGateway, Key: "http.errors.bad_gateway"}
	ErrUnavailable = HTTPError{Code: http.StatusServiceUnavailable, Key: "http.errors.unavailable"}
)
