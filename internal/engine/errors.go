package engine

import (
	"fmt"
	"net/http"
)

// Error codes carried on engine errors so the transport layer can map them
// to HTTP statuses without re-deriving semantics.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidMemoryID = "INVALID_MEMORY_ID"
	CodeInvalidStrategy = "INVALID_STRATEGY"
	CodeNotFound        = "NOT_FOUND"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
	CodeAnalysisFailed  = "ANALYSIS_FAILED"
)

// Error is the engine's typed error. Code is stable and machine-readable,
// Status is the HTTP status hint, and Err carries the underlying cause when
// one exists.
type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

func invalidMemoryID(format string, args ...interface{}) *Error {
	return &Error{
		Code:    CodeInvalidMemoryID,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

func invalidStrategy(strategy string) *Error {
	return &Error{
		Code:    CodeInvalidStrategy,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("unknown merge strategy: %s", strategy),
	}
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func analysisFailed(message string, err error) *Error {
	return &Error{
		Code:    CodeAnalysisFailed,
		Status:  http.StatusInternalServerError,
		Message: message,
		Err:     err,
	}
}
