package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain", errors.New("boom"), KindUnknown},
		{"input", InputError("remove pages", ErrInvalidPageNumber), KindInputValidation},
		{"wrapped upstream", fmt.Errorf("take notes: %w", UpstreamError("synthesize", ErrMalformedModelOutput)), KindUpstream},
		{"not found", NotFoundError("lookup", ErrPaperNotFound), KindNotFound},
		{"config", ConfigError("config", ErrMissingCredential), KindConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapsSentinel(t *testing.T) {
	err := InputError("remove pages", fmt.Errorf("page 11 of 10: %w", ErrInvalidPageNumber))
	if !errors.Is(err, ErrInvalidPageNumber) {
		t.Fatalf("expected ErrInvalidPageNumber in chain, got %v", err)
	}
	if got, want := err.Error(), "remove pages: page 11 of 10: invalid page number"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
