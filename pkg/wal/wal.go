// Package wal implements the append-only request-idempotency log: a plain
// sequential file of JSON lines, one record per line.
//
// This log exists so the request layer can answer "have I already processed
// this idempotency key" after a restart. It is deliberately simple - no
// compaction, no indexing, no framing beyond newlines - and makes no
// durability promise stronger than the filesystem's.
package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Record is one logged request: free-form fields, conventionally including
// an "idempotency_key".
type Record map[string]any

// WAL is a JSON-lines append-only log. Safe for concurrent use; appends are
// serialized by an internal lock.
type WAL struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// New opens (creating if needed) the log at path, including parent
// directories.
func New(path string) (*WAL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating WAL directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening WAL: %w", err)
	}
	return &WAL{path: path, f: f}, nil
}

// Append writes one record as a JSON line.
func (w *WAL) Append(rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding WAL record: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("appending WAL record: %w", err)
	}
	return nil
}

// ReadAll returns every record in append order. Blank lines are skipped.
func (w *WAL) ReadAll() ([]Record, error) {
	var out []Record
	err := w.scan(func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// FindByIdempotencyKey returns the first record whose "idempotency_key"
// field equals key, or nil if none does.
func (w *WAL) FindByIdempotencyKey(key string) (Record, error) {
	var found Record
	err := w.scan(func(rec Record) error {
		if found != nil {
			return nil
		}
		if k, ok := rec["idempotency_key"].(string); ok && k == key {
			found = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Replay invokes handler on every record in append order, stopping at the
// first handler error.
func (w *WAL) Replay(handler func(Record) error) error {
	return w.scan(handler)
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Path returns the log's file path.
func (w *WAL) Path() string {
	return w.path
}

func (w *WAL) scan(handler func(Record) error) error {
	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("opening WAL for read: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decoding WAL record: %w", err)
		}
		if err := handler(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}
