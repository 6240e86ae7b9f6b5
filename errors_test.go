package hxbridge

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		config  bool
		dropped bool
		decode  bool
	}{
		{"invalid config", fmt.Errorf("%w: bad id", ErrInvalidConfig), true, false, false},
		{"closed", ErrTransportClosed, false, true, false},
		{"full", fmt.Errorf("send: %w", ErrMailboxFull), false, true, false},
		{"format", ErrInvalidFormat, false, false, true},
		{"signature", ErrSignatureInvalid, false, false, true},
		{"decrypt", ErrDecryptFailed, false, false, true},
		{"other", errors.New("other"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigError(tt.err); got != tt.config {
				t.Errorf("IsConfigError() = %v, want %v", got, tt.config)
			}
			if got := IsDropped(tt.err); got != tt.dropped {
				t.Errorf("IsDropped() = %v, want %v", got, tt.dropped)
			}
			if got := IsDecodeError(tt.err); got != tt.decode {
				t.Errorf("IsDecodeError() = %v, want %v", got, tt.decode)
			}
		})
	}
}

func TestHookErrorUnwraps(t *testing.T) {
	cause := errors.New("no tbody")
	err := &HookError{Type: "data-table", ID: "t1", Hook: "FindElements", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(HookError, cause) = false")
	}
	want := `hxbridge: data-table "t1": FindElements: no tbody`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDropReason(t *testing.T) {
	if got := dropReason(ErrMailboxFull); got != "full" {
		t.Errorf("dropReason(full) = %q", got)
	}
	if got := dropReason(ErrTransportClosed); got != "closed" {
		t.Errorf("dropReason(closed) = %q", got)
	}
}
