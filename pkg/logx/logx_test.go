package logx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	if logger.GetComponentID() != "test-component" {
		t.Errorf("expected component ID 'test-component', got %s", logger.GetComponentID())
	}
}

func TestWithComponentID(t *testing.T) {
	logger := NewLogger("a")
	derived := logger.WithComponentID("b")
	if derived.GetComponentID() != "b" {
		t.Errorf("expected derived component ID 'b', got %s", derived.GetComponentID())
	}
	if logger.GetComponentID() != "a" {
		t.Errorf("original logger mutated, got %s", logger.GetComponentID())
	}
}

func TestSetDebugConfig(t *testing.T) {
	defer SetDebugConfig(false, false, "")

	SetDebugConfig(true, false, "")
	if !IsDebugEnabled() {
		t.Error("expected debug to be enabled")
	}

	SetDebugConfig(false, false, "")
	if IsDebugEnabled() {
		t.Error("expected debug to be disabled")
	}
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	defer SetDebugConfig(false, false, "")

	SetDebugConfig(false, true, dir)

	logger := NewLogger("filetest")
	logger.Info("hello %s", "world")

	data, err := os.ReadFile(filepath.Join(dir, "filetest.log"))
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), "hello world") {
		t.Errorf("log file missing message, got: %s", string(data))
	}
	if !strings.Contains(string(data), "[INFO]") {
		t.Errorf("log file missing level, got: %s", string(data))
	}
}
