package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDefaultIsSilent(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Fatal("default logger should be disabled")
	}
}

func TestDebugLogGatedBySwitch(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	Debug = false
	DebugLog("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	Debug = true
	defer func() { Debug = false }()
	DebugLog("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Fatalf("missing debug line: %q", buf.String())
	}
}
