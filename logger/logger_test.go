package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit_LevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapshot.log")
	closer, err := Init(Options{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer closer.Close()

	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", Log.GetLevel())
	}

	For("test").Info("hello")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat log file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected log file to contain content")
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if _, err := Init(Options{Level: "loud"}); err == nil {
		t.Error("Expected error for invalid level")
	}
}
