package javaprint

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewUserError(t *testing.T) {
	t.Parallel()

	if got := NewUserError(0, "bad").Status; got != http.StatusBadRequest {
		t.Errorf("zero status = %d, want %d", got, http.StatusBadRequest)
	}
	ue := NewUserError(http.StatusRequestEntityTooLarge, "Zip file is too large.")
	if ue.Status != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d, want 413", ue.Status)
	}
	if ue.Error() != "Zip file is too large." {
		t.Errorf("Error() = %q", ue.Error())
	}
}

func TestAsUserError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		wantOK bool
	}{
		{name: "direct", err: NewUserError(422, "x"), wantOK: true},
		{name: "wrapped", err: fmt.Errorf("reading upload: %w", NewUserError(413, "x")), wantOK: true},
		{name: "system error", err: ErrPDFGeneration, wantOK: false},
		{name: "nil", err: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ue, ok := AsUserError(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("AsUserError() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !errors.Is(tt.err, ue) {
				t.Error("returned error should be the wrapped one")
			}
		})
	}
}
