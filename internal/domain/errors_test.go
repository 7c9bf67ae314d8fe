package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestQueryError_IsMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("query: %w", &QueryError{Kind: KindQuota, Status: 429, Message: "Rate limit exceeded"})

	if !errors.Is(err, ErrQuota) {
		t.Error("errors.Is(err, ErrQuota) = false")
	}
	if errors.Is(err, ErrAuth) {
		t.Error("errors.Is(err, ErrAuth) = true")
	}
	if got := err.Error(); got != "query: quota (status 429): Rate limit exceeded" {
		t.Errorf("Error() = %q", got)
	}
}

func TestQueryError_UnwrapsCause(t *testing.T) {
	err := NewQueryError(KindCanceled, context.Canceled)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrCanceled) {
		t.Errorf("%v should match both the cause and the sentinel", err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{NewQueryError(KindDecode, errors.New("eof")), KindDecode},
		{fmt.Errorf("wrapped: %w", ErrInvalidInput), KindInvalidInput},
		{errors.New("unclassified"), KindUpstream},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
