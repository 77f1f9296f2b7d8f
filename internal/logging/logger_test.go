package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Development(t *testing.T) {
	cfg := Config{
		Level:       "debug",
		Development: true,
		OutputPaths: []string{"stdout"},
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create development logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Expected non-nil logger")
	}

	logger.Debug("test debug message")
}

func TestNewLogger_Production(t *testing.T) {
	logger, err := NewProductionLogger("")
	if err != nil {
		t.Fatalf("Failed to create production logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info level to be enabled by default")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be disabled by default")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "invalid"

	if _, err := NewLogger(cfg); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"Warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if err != nil {
				t.Fatalf("ParseLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() returned nil for empty context")
	}

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithComponent(ctx, "builder")

	FromContext(ctx).Info("realized")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()[FieldComponent]; got != "builder" {
		t.Errorf("component = %v, want builder", got)
	}
}
