package logging

import (
	"log/slog"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerRendersComponentPrefix(t *testing.T) {
	var buf strings.Builder
	levelVar := new(slog.LevelVar)
	handler := newConsoleHandler(&buf, levelVar)

	logger := NewComponentLogger(slog.New(handler), "resolver")
	logger.Info("verdict computed", String("verdict", "match"))

	out := buf.String()
	if !strings.Contains(out, "resolver: verdict computed") {
		t.Fatalf("expected component prefix in output, got %q", out)
	}
	if !strings.Contains(out, "verdict=match") {
		t.Fatalf("expected key=value attr in output, got %q", out)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"has space", `"has space"`},
		{"", `""`},
		{"a=b", `"a=b"`},
	}
	for _, tc := range cases {
		if got := quoteIfNeeded(tc.in); got != tc.want {
			t.Errorf("quoteIfNeeded(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
