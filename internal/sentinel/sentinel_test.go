package sentinel

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  Error
		want string
	}{
		"simple message": {err: Error("something failed"), want: "something failed"},
		"empty message":  {err: Error(""), want: ""},
		"kind":           {err: ErrNotFound, want: "not found"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_ErrorsIs(t *testing.T) {
	t.Parallel()

	t.Run("wrapped match", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("python/1.0.0: %w", ErrConfig)
		if !errors.Is(wrapped, ErrConfig) {
			t.Error("errors.Is should match a kind through wrapping")
		}
	})

	t.Run("double wrapped match", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("generate: %w", fmt.Errorf("Dockerfile: %w", ErrTemplate))
		if !errors.Is(wrapped, ErrTemplate) {
			t.Error("errors.Is should match a kind through two levels of wrapping")
		}
	})

	t.Run("same text different type no match", func(t *testing.T) {
		t.Parallel()

		if errors.Is(ErrNotFound, errors.New("not found")) {
			t.Error("errors.Is should not match errors.New with the same text")
		}
	})
}

func TestKindsAreDistinct(t *testing.T) {
	t.Parallel()

	kinds := []Error{ErrConfig, ErrNotFound, ErrTemplate, ErrPortExhausted, ErrBuild, ErrRun}
	for i, a := range kinds {
		for _, b := range kinds[i+1:] {
			if errors.Is(a, b) {
				t.Errorf("errors.Is(%q, %q) = true, kinds must be distinct", a, b)
			}
		}
	}
}
