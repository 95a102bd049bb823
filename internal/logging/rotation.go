package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// rotatingWriter is an io.Writer that rotates the log file once it grows
// past maxSize, keeping at most maxBackups rotated files.
type rotatingWriter struct {
	filename   string
	maxSize    int64
	maxBackups int

	mu          sync.Mutex
	file        *os.File
	currentSize int64
}

func newRotatingWriter(filename string, maxSizeMB, maxBackups int) (io.Writer, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &rotatingWriter{
		filename:   filename,
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer.
func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	if w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

func (w *rotatingWriter) open() error {
	file, err := os.OpenFile(w.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = file
	w.currentSize = info.Size()
	return nil
}

func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}

	ext := filepath.Ext(w.filename)
	base := strings.TrimSuffix(w.filename, ext)
	backup := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102-150405"), ext)

	if err := os.Rename(w.filename, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}

	w.pruneBackups()
	return nil
}

// pruneBackups removes the oldest rotated files beyond maxBackups.
func (w *rotatingWriter) pruneBackups() {
	ext := filepath.Ext(w.filename)
	base := strings.TrimSuffix(w.filename, ext)

	matches, err := filepath.Glob(base + ".*" + ext)
	if err != nil {
		return
	}

	var backups []string
	for _, m := range matches {
		if m != w.filename {
			backups = append(backups, m)
		}
	}
	sort.Strings(backups) // timestamped names sort oldest first

	for len(backups) > w.maxBackups {
		_ = os.Remove(backups[0])
		backups = backups[1:]
	}
}
