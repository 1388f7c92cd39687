package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/deepugami/mini-crm/internal/platform/config"
)

func TestInitSetsLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"unknown falls back to info", "verbose", zerolog.InfoLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(config.LoggingConfig{Level: tt.level, Format: "json"})
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("expected global level %s, got %s", tt.want, got)
			}
		})
	}
}

func TestInitTextFormat(t *testing.T) {
	Init(config.LoggingConfig{Level: "info", Format: "text"})

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %s", zerolog.GlobalLevel())
	}
}
