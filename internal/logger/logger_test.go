package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"local", "dev", "docker", "prod"} {
		l, err := NewLogger(env, "protsearch", "")
		if err != nil {
			t.Fatalf("env %s: unexpected error: %v", env, err)
		}
		_ = l.Sync()
	}
}

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging", "protsearch", ""); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zap.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zap.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}

	if _, err := NewLogger("prod", "", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFromContext(t *testing.T) {
	base := zap.NewExample()
	fallback := zap.NewNop()

	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger for empty context")
	}
	if got := FromContext(context.Background()); got == nil {
		t.Error("expected a no-op logger, got nil")
	}

	ctx := ContextWithLogger(context.Background(), base)
	if got := FromContext(ctx, fallback); got != base {
		t.Error("expected logger stored in context")
	}
}
