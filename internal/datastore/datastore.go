// Package datastore is a small JSON-file key/value store. Values are kept
// encoded in memory and flushed to disk atomically, either explicitly or by
// the Run loop.
package datastore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrClosed = errors.New("datastore is closed")

type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration
	// BackupCount timestamped copies of the previous file are kept on save.
	BackupCount int
	Clock       clockwork.Clock
}

func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		BackupCount:      3,
	}
}

type Store struct {
	cfg Config

	mu       sync.RWMutex
	data     map[string]json.RawMessage
	checksum [sha256.Size]byte
	closed   bool
}

// Open loads cfg.FilePath, creating an empty store file when missing.
func Open(cfg Config) (*Store, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("datastore: file path cannot be empty")
	}
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = DefaultConfig("").AutoSaveInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	s := &Store{cfg: cfg, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(cfg.FilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		empty := []byte("{}")
		if err := s.writeFileAtomic(empty); err != nil {
			return nil, fmt.Errorf("create empty store: %w", err)
		}
		s.checksum = sha256.Sum256(empty)
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", cfg.FilePath, err)
		}
		if s.data == nil {
			s.data = make(map[string]json.RawMessage)
		}
		s.checksum = sha256.Sum256(raw)
	}
	return s, nil
}

// Put stores v under key.
func (s *Store) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[key] = raw
	return nil
}

// Get decodes the value under key into out. It reports false when the key is absent.
func (s *Store) Get(key string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return false, ErrClosed
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Keys returns the keys starting with prefix, sorted.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Flush writes the store to disk if it changed since the last write.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.flushLocked()
}

// Run flushes every AutoSaveInterval until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	ticker := s.cfg.Clock.NewTicker(s.cfg.AutoSaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := s.Flush(); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				log.Printf("[ERR] Datastore auto-save failed: %v", err)
			}
		}
	}
}

// Close flushes a final time. Further writes fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	sum := sha256.Sum256(raw)
	if sum == s.checksum {
		return nil
	}

	if s.cfg.BackupCount > 0 {
		if err := s.backup(); err != nil {
			log.Printf("[WARN] Datastore backup failed: %v", err)
		}
	}
	if err := s.writeFileAtomic(raw); err != nil {
		return err
	}
	written, err := os.ReadFile(s.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("verify store: %w", err)
	}
	if !bytes.Equal(written, raw) {
		return errors.New("verify store: content mismatch after write")
	}
	s.checksum = sum
	return nil
}

func (s *Store) writeFileAtomic(data []byte) error {
	tmp := s.cfg.FilePath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.FilePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) backup() error {
	src, err := os.Open(s.cfg.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", s.cfg.FilePath, s.cfg.Clock.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return s.pruneBackups()
}

// pruneBackups keeps the newest BackupCount backups. Names sort by time.
func (s *Store) pruneBackups() error {
	matches, err := filepath.Glob(s.cfg.FilePath + ".backup.*")
	if err != nil {
		return err
	}
	if len(matches) <= s.cfg.BackupCount {
		return nil
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-s.cfg.BackupCount] {
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}
