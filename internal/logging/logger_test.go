package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUninitializedIsNoop(t *testing.T) {
	CloseAll()

	// Must not panic or create files.
	Trainer("epoch %d", 1)
	Get(CategoryDataset).Error("boom")
}

func TestInitializeAndWrite(t *testing.T) {
	CloseAll()
	dir := t.TempDir()

	if err := Initialize(dir, "debug"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	Trainer("epoch %d done", 3)
	TrainerDebug("loss=%f", 0.25)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	var trainerLog string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_trainer.log") {
			trainerLog = filepath.Join(dir, e.Name())
		}
	}
	if trainerLog == "" {
		t.Fatalf("no trainer log file created, got %v", entries)
	}

	data, err := os.ReadFile(trainerLog)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "epoch 3 done") {
		t.Errorf("expected info line in log, got: %s", data)
	}
	if !strings.Contains(string(data), "loss=0.25") {
		t.Errorf("expected debug line in log, got: %s", data)
	}
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	CloseAll()
	if err := Initialize(t.TempDir(), "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	CloseAll()
}

func TestLevelFiltering(t *testing.T) {
	CloseAll()
	dir := t.TempDir()
	if err := Initialize(dir, "warn"); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	Dataset("should be filtered")
	DatasetWarn("should appear")

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), "_dataset.log") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if strings.Contains(string(data), "should be filtered") {
			t.Error("info line leaked through warn level")
		}
		if !strings.Contains(string(data), "should appear") {
			t.Error("warn line missing")
		}
	}
}
