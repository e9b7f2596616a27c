package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLogger_JSONWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatJSON, LevelInfo)

	logger.Info("match fetched", "match_id", "abc", "completed", 3, "error", errors.New("boom"))
	logger.Debug("hidden")

	out := buf.String()
	for _, want := range []string{`"msg":"match fetched"`, `"match_id":"abc"`, `"completed":3`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output, got %s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %s", out)
	}
}

func TestLogger_OddArgsAndNilReceiver(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, FormatJSON, LevelDebug).With("run", "r1")
	logger.Warn("dangling", "key")

	if !strings.Contains(buf.String(), `"key":null`) {
		t.Fatalf("expected dangling key to be logged as null, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"run":"r1"`) {
		t.Fatalf("expected With fields to be carried, got %s", buf.String())
	}

	var nilLogger *Logger
	nilLogger.Info("should not panic")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if got := ParseFormat("Console"); got != FormatConsole {
		t.Fatalf("expected console format, got %s", got)
	}
	if got := ParseFormat("anything"); got != FormatJSON {
		t.Fatalf("expected json fallback, got %s", got)
	}
}
