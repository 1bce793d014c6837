package errors

import (
	"fmt"
)

// ErrNoActiveProject is returned when no sketch is currently open.
// It is an expected condition; callers skip the current pass.
var ErrNoActiveProject = New(ErrCodeNoActiveProject, "no active project")

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SyncError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SyncError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// FileNotFound creates an error for a resource that does not exist.
func FileNotFound(uri string, err error) *SyncError {
	return Wrap(err, ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", uri)).
		WithDetail("uri", uri)
}

// FolderCreateFailed creates an error for a temp folder that could not be created.
func FolderCreateFailed(uri string, err error) *SyncError {
	return Wrap(err, ErrCodeFolderCreateFailed, fmt.Sprintf("failed to create folder: %s", uri)).
		WithDetail("uri", uri)
}

// IOFailure creates an error for an unexpected read or write failure.
func IOFailure(op, uri string, err error) *SyncError {
	return Wrap(err, ErrCodeIOFailure, fmt.Sprintf("%s failed: %s", op, uri)).
		WithDetail("op", op).
		WithDetail("uri", uri)
}

// ParseFailure creates an error for a launch file that is not valid JSON.
func ParseFailure(uri string, err error) *SyncError {
	return Wrap(err, ErrCodeParseFailure, fmt.Sprintf("failed to parse: %s", uri)).
		WithDetail("uri", uri)
}

// SchemaValidation creates an error for a launch file that does not match the schema.
func SchemaValidation(uri string, err error) *SyncError {
	return Wrap(err, ErrCodeSchemaValidation, fmt.Sprintf("schema validation failed: %s", uri)).
		WithDetail("uri", uri)
}
