package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Project and file location errors
	ErrCodeNoActiveProject    ErrorCode = "NO_ACTIVE_PROJECT"
	ErrCodeFileNotFound       ErrorCode = "FILE_NOT_FOUND"
	ErrCodeFolderCreateFailed ErrorCode = "FOLDER_CREATE_FAILED"

	// Launch file errors
	ErrCodeIOFailure        ErrorCode = "IO_FAILURE"
	ErrCodeParseFailure     ErrorCode = "PARSE_FAILURE"
	ErrCodeSchemaValidation ErrorCode = "SCHEMA_VALIDATION"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// SyncError represents a structured error with context
type SyncError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *SyncError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *SyncError) WithDetail(key string, value interface{}) *SyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *SyncError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new SyncError
func New(code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SyncError
func Wrap(err error, code ErrorCode, message string) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether any SyncError in err's chain carries the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var syncErr *SyncError
		if !stderrors.As(err, &syncErr) {
			return false
		}
		if syncErr.Code == code {
			return true
		}
		err = syncErr.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error
func GetCode(err error) ErrorCode {
	var syncErr *SyncError
	if stderrors.As(err, &syncErr) {
		return syncErr.Code
	}
	return ""
}

// As is errors.As from the standard library, re-exported so callers of this
// package need not import both.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
