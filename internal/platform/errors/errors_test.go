package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "provider failure keeps cause",
			err:  Provider("turn.translate", "translate call failed", "", errors.New("status 503")),
			want: "[provider:turn.translate] translate call failed: status 503",
		},
		{
			name: "unknown session",
			err:  SessionNotFound("session.get", "s-1"),
			want: "[session_not_found:session.get] session s-1 not found",
		},
		{
			name: "storage without cause",
			err:  New(KindStorage, "storage.migrate", "schema_versions missing"),
			want: "[storage:storage.migrate] schema_versions missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_NilAndCauseChain(t *testing.T) {
	if Wrap(KindStorage, "storage.open", "failed", nil) != nil {
		t.Fatal("Wrap(nil) should return nil")
	}

	cause := errors.New("disk full")
	wrapped := Wrap(KindStorage, "storage.open", "failed to open database", cause)
	if !errors.Is(fmt.Errorf("bootstrap: %w", wrapped), cause) {
		t.Error("cause should stay reachable through errors.Is")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"unsupported language", UnsupportedLanguage("language.resolve", "xx-XX", "translate"), KindUnsupportedLanguage, true},
		{"wrapped by fmt", fmt.Errorf("select: %w", Validation("session.select_language", "code is required")), KindValidation, true},
		{"kind mismatch", New(KindNotFound, "language.get", "no setting"), KindSessionNotFound, false},
		{"plain error", errors.New("plain"), KindProvider, false},
		{"nil", nil, KindProvider, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.want {
				t.Errorf("IsKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOfAndDetail(t *testing.T) {
	providerErr := Provider("recap.summarize", "summary failed", `{"error":"quota"}`, errors.New("status 429"))
	wrapped := fmt.Errorf("outer: %w", providerErr)

	if got := KindOf(wrapped); got != KindProvider {
		t.Fatalf("KindOf() = %s, expected %s", got, KindProvider)
	}
	if got := DetailOf(wrapped); got != `{"error":"quota"}` {
		t.Fatalf("DetailOf() = %q", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("KindOf(plain) = %s, expected %s", got, KindUnknown)
	}
}

func TestWrapKeepsTypedError(t *testing.T) {
	inner := SessionNotFound("session.get", "abc")
	outer := Wrap(KindStorage, "session.load", "failed", inner)

	if outer.Kind != KindSessionNotFound {
		t.Fatalf("Wrap should keep the inner kind, got %s", outer.Kind)
	}
	if !strings.Contains(outer.Error(), "abc") {
		t.Fatalf("unexpected message %q", outer.Error())
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{name: "session not found", err: SessionNotFound("op", "id"), kind: KindSessionNotFound},
		{name: "unsupported language", err: UnsupportedLanguage("op", "xx-XX", "translate"), kind: KindUnsupportedLanguage},
		{name: "validation", err: Validation("op", "text is required"), kind: KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsKind(tt.err, tt.kind) {
				t.Errorf("expected kind %s, got %s", tt.kind, tt.err.Kind)
			}
		})
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(nil); got != "" {
		t.Errorf("expected empty message, got %q", got)
	}
	wrapped := fmt.Errorf("outer: %w", Validation("turn.execute", "text is required"))
	if got := MessageOf(wrapped); got != "text is required" {
		t.Errorf("unexpected message %q", got)
	}
	plain := errors.New("boom")
	if got := MessageOf(plain); got != "boom" {
		t.Errorf("unexpected message %q", got)
	}
}
