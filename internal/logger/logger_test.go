package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		enabled zapcore.Level
	}{
		{"info console", "info", "console", false, zapcore.InfoLevel},
		{"debug json", "debug", "json", false, zapcore.DebugLevel},
		{"warn", "warn", "json", false, zapcore.WarnLevel},
		{"bad level", "loud", "json", true, 0},
		{"bad format", "info", "xml", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !log.Core().Enabled(tt.enabled) {
				t.Errorf("level %v not enabled", tt.enabled)
			}
			if tt.enabled > zapcore.DebugLevel && log.Core().Enabled(tt.enabled-1) {
				t.Errorf("level %v should be disabled", tt.enabled-1)
			}
		})
	}
}

func TestNop(t *testing.T) {
	if Nop().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Nop() logger should not be enabled")
	}
}
