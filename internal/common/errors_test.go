package common

import (
	"errors"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := NewAppError("PARSE_ERROR", "line 3 malformed", ErrInvalidInput)

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("AppError does not unwrap to its cause")
	}
	if got := err.Error(); !strings.Contains(got, "PARSE_ERROR") || !strings.Contains(got, "line 3 malformed") {
		t.Errorf("Error() = %q", got)
	}

	bare := NewAppError("CONFIG_ERROR", "INPUT_DIR is required", nil)
	if errors.Unwrap(bare) != nil {
		t.Error("Unwrap of cause-less AppError should be nil")
	}
	if got := bare.Error(); strings.Contains(got, "<nil>") {
		t.Errorf("Error() = %q leaks nil cause", got)
	}
}
