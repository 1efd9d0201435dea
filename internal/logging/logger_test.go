package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerWritesToConfiguredFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "sub", "talentgraph.log")

	logger, err := NewLogger(Config{Level: INFO, OutputFile: logFile})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	defer logger.Close()

	logger.Info("hello", "key", "value")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected the log file to contain the written entry")
	}
}

func TestRotateIfNeededRotatesOversizedFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "talentgraph.log")
	if err := os.WriteFile(logFile, make([]byte, 100), 0644); err != nil {
		t.Fatalf("seed log file: %v", err)
	}

	logger, err := NewLogger(Config{Level: INFO, OutputFile: logFile, MaxSize: 10})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logFile + ".1"); err != nil {
		t.Fatalf("expected the oversized file to be rotated to .1: %v", err)
	}
}

func TestToSlogLevelMapsFatalToError(t *testing.T) {
	l := &Logger{}
	if l.toSlogLevel(FATAL) != l.toSlogLevel(ERROR) {
		t.Error("FATAL should map to the same slog level as ERROR; slog has no fatal level")
	}
}

func TestDefaultConfigSwitchesFormatByDebugMode(t *testing.T) {
	debug := DefaultConfig(true)
	if debug.JSONFormat {
		t.Error("debug mode should use human-readable text output")
	}
	if !debug.AddSource {
		t.Error("debug mode should add source location")
	}

	prod := DefaultConfig(false)
	if !prod.JSONFormat {
		t.Error("non-debug mode should default to JSON output")
	}
	if prod.AddSource {
		t.Error("non-debug mode should not add source location")
	}
}

func TestWithReturnsIndependentLoggerInstance(t *testing.T) {
	logger, err := NewLogger(Config{Level: INFO})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	defer logger.Close()

	child := logger.With("component", "discovery")
	if child == logger {
		t.Error("With() should return a distinct *Logger")
	}
}
