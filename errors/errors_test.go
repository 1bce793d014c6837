package errors

import (
	"fmt"
	"testing"
)

func TestSyncError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeParseFailure, "bad json")
	if err.Code != ErrCodeParseFailure {
		t.Errorf("expected code %s, got %s", ErrCodeParseFailure, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeIOFailure, "read failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeIOFailure) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeFileNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("uri", "/tmp/launch.json").WithDetail("line", 3)
	if detailed.Details["uri"] != "/tmp/launch.json" {
		t.Error("WithDetail should add details")
	}
}

func TestIsThroughFmtWrapping(t *testing.T) {
	inner := FileNotFound("/tmp/x/launch.json", fmt.Errorf("no such file"))
	outer := fmt.Errorf("reading launch config: %w", inner)

	if !Is(outer, ErrCodeFileNotFound) {
		t.Error("Is should see codes behind fmt.Errorf wrapping")
	}
	if GetCode(outer) != ErrCodeFileNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeFileNotFound, GetCode(outer))
	}
}

func TestIsNestedCodes(t *testing.T) {
	inner := FileNotFound("/tmp/x", nil)
	outer := Wrap(inner, ErrCodeInternal, "outer")

	if !Is(outer, ErrCodeFileNotFound) {
		t.Error("Is should find an inner code")
	}
	if GetCode(outer) != ErrCodeInternal {
		t.Errorf("GetCode should return the outermost code, got %s", GetCode(outer))
	}
	if Is(nil, ErrCodeInternal) {
		t.Error("Is(nil) should be false")
	}
}

func TestErrorConstructors(t *testing.T) {
	cause := fmt.Errorf("permission denied")

	err := FolderCreateFailed("/tmp/arduino-ide2-ABC", cause)
	if err.Code != ErrCodeFolderCreateFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFolderCreateFailed, err.Code)
	}
	if err.Details["uri"] != "/tmp/arduino-ide2-ABC" {
		t.Error("FolderCreateFailed should include uri detail")
	}

	err = IOFailure("read", "/tmp/launch.json", cause)
	if err.Details["op"] != "read" {
		t.Error("IOFailure should include op detail")
	}

	if ErrNoActiveProject.Code != ErrCodeNoActiveProject {
		t.Errorf("unexpected sentinel code %s", ErrNoActiveProject.Code)
	}
}
