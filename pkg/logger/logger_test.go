package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCtxReturnsScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	scoped := zerolog.New(&buf).With().Str("request_id", "r-1").Logger()
	ctx := WithLogger(context.Background(), scoped)

	Ctx(ctx).Warn().Msg("slow query")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"r-1"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("unexpected log line %q", out)
	}
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	if Ctx(context.Background()) != L() {
		t.Fatal("expected the global logger without a scoped one")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
