package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriterWrite(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := newRotatingWriter(logFile, 1, 3)
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}

	msg := "test log message\n"
	n, err := writer.Write([]byte(msg))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("expected to write %d bytes, wrote %d", len(msg), n)
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(content) != msg {
		t.Errorf("expected content %q, got %q", msg, content)
	}
}

func TestRotatingWriterDirectoryCreation(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "nested", "deep", "logs")
	logFile := filepath.Join(nestedDir, "test.log")

	if _, err := newRotatingWriter(logFile, 1, 3); err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}

	if _, err := os.Stat(nestedDir); os.IsNotExist(err) {
		t.Error("expected nested directory to be created")
	}
}

func TestRotatingWriterRotation(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := newRotatingWriter(logFile, 1, 3)
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}

	// Shrink the threshold so two small writes cross it.
	rw := writer.(*rotatingWriter)
	rw.mu.Lock()
	rw.maxSize = 100
	rw.mu.Unlock()

	msg := strings.Repeat("x", 60) + "\n"

	if _, err := rw.Write([]byte(msg)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	// Second write would exceed 100 bytes and must rotate first.
	if _, err := rw.Write([]byte(msg)); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(tmpDir, "test.*.log"))
	if err != nil {
		t.Fatalf("failed to glob backup files: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 backup file, found %d: %v", len(matches), matches)
	}

	// The backup holds the first write, the live file only the second.
	backup, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(backup) != msg {
		t.Errorf("backup content lost: %d bytes", len(backup))
	}
	current, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(current) != msg {
		t.Errorf("expected fresh file with one write, got %d bytes", len(current))
	}
}

func TestRotatingWriterPruneBackups(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := newRotatingWriter(logFile, 1, 1)
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}
	rw := writer.(*rotatingWriter)

	// Timestamped backup names sort oldest first.
	backups := []string{
		"test.20260101-000000.log",
		"test.20260102-000000.log",
		"test.20260103-000000.log",
	}
	for _, name := range backups {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("old\n"), 0644); err != nil {
			t.Fatalf("failed to seed backup %s: %v", name, err)
		}
	}

	rw.mu.Lock()
	rw.pruneBackups()
	rw.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(tmpDir, "test.*.log"))
	if err != nil {
		t.Fatalf("failed to glob backup files: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 surviving backup, found %d: %v", len(matches), matches)
	}
	if filepath.Base(matches[0]) != "test.20260103-000000.log" {
		t.Errorf("newest backup should survive, got %s", matches[0])
	}
}

func TestRotatingWriterWriteReopensAfterClosedFile(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := newRotatingWriter(logFile, 1, 3)
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}
	rw := writer.(*rotatingWriter)

	// Simulate a closed state; the next write must reopen the file.
	rw.mu.Lock()
	if rw.file != nil {
		_ = rw.file.Close()
		rw.file = nil
	}
	rw.mu.Unlock()

	msg := "test after close\n"
	n, err := rw.Write([]byte(msg))
	if err != nil {
		t.Fatalf("Write after close failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("expected to write %d bytes, wrote %d", len(msg), n)
	}
}

func TestNewRotatingWriterDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := newRotatingWriter(logFile, 0, 0)
	if err != nil {
		t.Fatalf("failed to create rotating writer: %v", err)
	}

	rw := writer.(*rotatingWriter)
	if rw.maxSize != 100*1024*1024 {
		t.Errorf("expected 100MB default threshold, got %d", rw.maxSize)
	}
	if rw.maxBackups != 3 {
		t.Errorf("expected 3 default backups, got %d", rw.maxBackups)
	}
}
