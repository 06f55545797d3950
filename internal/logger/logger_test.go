package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parkinsight.log")
	log, err := New("debug", path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Infow("stage finished", "stage", "clean", "rows", 12)
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"stage finished"`) || !strings.Contains(out, `"stage":"clean"`) {
		t.Fatalf("unexpected log contents: %s", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("chatty", ""); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
