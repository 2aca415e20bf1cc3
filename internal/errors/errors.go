package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a sitecat error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrPortInUse      ErrorCode = "PORT_IN_USE"     // 409
	ErrParse          ErrorCode = "PARSE_ERROR"     // 422
	ErrValue          ErrorCode = "VALUE_ERROR"     // 422
	ErrIO             ErrorCode = "IO_ERROR"        // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// SiteError represents a structured error with code, status, and details.
type SiteError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SiteError {
	return &SiteError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing file or directory.
func NewNotFound(path string) *SiteError {
	return &SiteError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewPortInUse creates a 409 error for a port that is already bound.
func NewPortInUse(port int) *SiteError {
	return &SiteError{
		Code:    ErrPortInUse,
		Status:  409,
		Message: fmt.Sprintf("port %d is already in use", port),
		Details: map[string]any{"port": port},
	}
}

// NewParse creates a 422 error for a page that cannot be parsed as HTML.
func NewParse(path string, err error) *SiteError {
	return &SiteError{
		Code:    ErrParse,
		Status:  422,
		Message: fmt.Sprintf("failed to parse %s: %v", path, err),
		Details: map[string]any{"path": path},
	}
}

// NewValue creates a 422 error for metadata that cannot be converted.
func NewValue(path, field, value string) *SiteError {
	return &SiteError{
		Code:    ErrValue,
		Status:  422,
		Message: fmt.Sprintf("invalid %s %q in %s", field, value, path),
		Details: map[string]any{"path": path, "field": field, "value": value},
	}
}

// NewIO creates a 500 error for a failed filesystem operation.
func NewIO(op string, err error) *SiteError {
	msg := op
	if err != nil {
		msg = fmt.Sprintf("%s: %v", op, err)
	}
	return &SiteError{
		Code:    ErrIO,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors. The
// message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *SiteError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &SiteError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is a SiteError with the given code, unwrapping
// as needed.
func Is(err error, code ErrorCode) bool {
	var e *SiteError
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}
