package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextRoundTrip(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	ctx := ContextWithLogger(context.Background(), log)
	FromContext(ctx).Info("hello")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry through the context logger, got %d", logs.Len())
	}
	if logs.All()[0].Message != "hello" {
		t.Errorf("unexpected message: %q", logs.All()[0].Message)
	}
}

func TestFromContext_MissingLoggerIsNop(t *testing.T) {
	log := FromContext(context.Background())
	if log == nil {
		t.Fatal("expected a usable logger, got nil")
	}
	// Must not panic.
	log.Info("discarded")
}
