// Package fs provides the directory-structured Store implementation.
//
// This is the normative driver: its on-disk layout is part of the module's
// public contract. One JSON file per entity, plus two derived indices:
//
//	registrations/{webhookId}.json
//	events/{webhookId}/index.json
//	events/{webhookId}/{eventId}.json
//	deliveries/{webhookId}/{deliveryId}.json
//	index.json
//
// Writes are whole-file-or-nothing (temp file + rename). No file locks
// guard the indices: concurrent writers to the same webhook race
// last-writer-wins, which the inbox documents rather than defends against.
// Unreadable files are treated as absent, never as hard errors.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/xraph/inbox"
	inboxstore "github.com/xraph/inbox/store"
)

// compile-time interface checks.
var (
	_ inboxstore.Store        = (*Store)(nil)
	_ inboxstore.EventsRooter = (*Store)(nil)
)

// errCorrupt marks a file that exists but does not parse.
var errCorrupt = errors.New("fs: corrupt json")

// Store is the filesystem implementation of store.Store.
type Store struct {
	base   string
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger used for corruption and cascade
// warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a filesystem store rooted at basePath. The directory skeleton
// is created lazily on write; call Migrate to create it eagerly.
func New(basePath string, opts ...Option) *Store {
	s := &Store{
		base:   basePath,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate creates the directory skeleton.
func (s *Store) Migrate(_ context.Context) error {
	for _, dir := range []string{
		s.base,
		s.registrationsDir(),
		s.eventsRoot(),
		s.deliveriesRoot(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("fs: migrate: %w", err)
		}
	}
	return nil
}

// Ping checks that the base path exists and is a directory.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return inbox.ErrStoreClosed
	}

	info, err := os.Stat(s.base)
	if err != nil {
		return fmt.Errorf("fs: ping: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("fs: ping: %s is not a directory", s.base)
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// EventsRoot returns the directory the watcher observes for new event files.
func (s *Store) EventsRoot() string {
	return s.eventsRoot()
}

// ──────────────────────────────────────────────────
// Paths
// ──────────────────────────────────────────────────

func (s *Store) registrationsDir() string {
	return filepath.Join(s.base, "registrations")
}

func (s *Store) registrationPath(webhookID string) string {
	return filepath.Join(s.registrationsDir(), webhookID+".json")
}

func (s *Store) globalIndexPath() string {
	return filepath.Join(s.base, "index.json")
}

func (s *Store) eventsRoot() string {
	return filepath.Join(s.base, "events")
}

func (s *Store) eventsDir(webhookID string) string {
	return filepath.Join(s.eventsRoot(), webhookID)
}

func (s *Store) eventPath(webhookID, eventID string) string {
	return filepath.Join(s.eventsDir(webhookID), eventID+".json")
}

func (s *Store) eventIndexPath(webhookID string) string {
	return filepath.Join(s.eventsDir(webhookID), "index.json")
}

func (s *Store) deliveriesRoot() string {
	return filepath.Join(s.base, "deliveries")
}

func (s *Store) deliveriesDir(webhookID string) string {
	return filepath.Join(s.deliveriesRoot(), webhookID)
}

func (s *Store) deliveryPath(webhookID, deliveryID string) string {
	return filepath.Join(s.deliveriesDir(webhookID), deliveryID+".json")
}

// ──────────────────────────────────────────────────
// File helpers
// ──────────────────────────────────────────────────

// writeJSON writes v to path atomically: marshal, write a temp file in the
// same directory, then rename over the target. Parent directories are
// created as needed.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("fs: marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fs: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("fs: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fs: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("fs: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fs: close temp: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("fs: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readJSON decodes path into v. Missing files surface the os error for the
// caller to classify; files that exist but do not parse report errCorrupt
// after a warning, so corruption reads as absence upstream.
func (s *Store) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("unreadable file treated as absent", "path", path, "error", err)
		return errCorrupt
	}
	return nil
}

// absent reports whether err means "nothing usable at this path".
func absent(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, errCorrupt)
}
