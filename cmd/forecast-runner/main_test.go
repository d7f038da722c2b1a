package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestHandler_InvalidTimeOverride(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	handler := newHandler(nil, time.UTC, logger)

	_, err := handler(context.Background(), RunnerInput{At: "yesterday-ish"})
	if err == nil {
		t.Fatal("expected error for unparsable 'at' value")
	}
	if !strings.Contains(err.Error(), "yesterday-ish") {
		t.Errorf("error = %v, want the offending value included", err)
	}
}
