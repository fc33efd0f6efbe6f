package constants

import (
	"net/http"
)

// CodedError is an error carrying the HTTP status it should be reported with.
type CodedError struct {
	code    int
	message string
}

func NewCodedError(code int, message string) *CodedError {
	return &CodedError{code: code, message: message}
}

func (e *CodedError) Error() string {
	return e.message
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound       = NewCodedError(http.StatusNotFound, "not found")
	ErrBadRequest       = NewCodedError(http.StatusBadRequest, "bad request")
	ErrConflict         = NewCodedError(http.StatusConflict, "already exists")
	ErrUnknownFamily    = NewCodedError(http.StatusBadRequest, "unknown device family")
	ErrEmptySource      = NewCodedError(http.StatusUnprocessableEntity, "tabular source is empty")
	ErrMissingColumns   = NewCodedError(http.StatusUnprocessableEntity, "required columns are missing")
	ErrStoreUnavailable = NewCodedError(http.StatusServiceUnavailable, "store unavailable")
)
