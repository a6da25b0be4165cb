// Package audit provides file-based audit persistence in JSON Lines format
// with daily file rotation.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/filiprab/a2a-opa/internal/domain/audit"
)

// FileStore implements audit.Store, writing one JSON line per record to a
// per-day file named decisions-YYYY-MM-DD.log under the configured
// directory.
type FileStore struct {
	dir    string
	logger *slog.Logger

	mu          sync.Mutex
	currentDate string
	file        *os.File
	writer      *bufio.Writer
	closed      bool
}

// NewFileStore creates the audit directory if needed and opens today's log
// file.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	s := &FileStore{dir: dir, logger: logger}
	if err := s.openLocked(time.Now().UTC().Format("2006-01-02")); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) openLocked(date string) error {
	if s.writer != nil {
		_ = s.writer.Flush()
	}
	if s.file != nil {
		_ = s.file.Close()
	}
	path := filepath.Join(s.dir, "decisions-"+date+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	s.file = f
	s.writer = bufio.NewWriter(f)
	s.currentDate = date
	return nil
}

// Append writes records as JSON lines, rotating to a new file when the
// record's date differs from the open file's date.
func (s *FileStore) Append(_ context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("audit store is closed")
	}

	for _, rec := range records {
		date := rec.Timestamp.UTC().Format("2006-01-02")
		if date != s.currentDate {
			if err := s.openLocked(date); err != nil {
				return fmt.Errorf("date rotation: %w", err)
			}
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		if _, err := s.writer.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write audit record: %w", err)
		}
	}
	return nil
}

// Flush forces buffered records to disk.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("flush audit file: %w", err)
	}
	return s.file.Sync()
}

// Close flushes and closes the current file. The store must not be used
// after Close.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
			s.logger.Error("audit flush on close failed", "error", err)
		}
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
