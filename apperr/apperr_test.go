package apperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "wrapped color", err: fmt.Errorf("%w: %q", ErrInvalidColorFormat, "nope"), want: true},
		{name: "scale", err: ErrInvalidScale, want: true},
		{name: "breakpoints", err: fmt.Errorf("parse: %w", ErrInvalidBreakpoints), want: true},
		{name: "per-file", err: fmt.Errorf("load a.png: %w", ErrInputNotFound), want: false},
		{name: "warning", err: ErrIncompatibleFormatOption, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsValidation(tt.err))
		})
	}
}
