// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache implements the durable read-through store backing the
// search pipeline.
//
// Three independently keyed kinds live in one embedded BadgerDB, using
// per-kind key prefixes:
//
//   - link sets (outgoing links of a page)
//   - backlink sets (pages linking to a page)
//   - category verdicts (human / not-human booleans)
//
// Entries are immutable once written: articles are assumed stable for the
// cache's lifetime, so there is no invalidation and no eviction. A miss
// is never an error; it just means the caller must fetch from the remote
// API. Writes are atomic per key, so an abandoned in-flight search never
// leaves a partial entry behind.
//
// The in-memory mode exists for tests: every test case gets an empty,
// isolated store with no disk I/O.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/wikipath/wikipath/services/pathfinder/norm"
)

// Kind identifies one of the three stores.
type Kind byte

const (
	KindLinks Kind = iota
	KindBacklinks
	KindVerdicts
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindLinks:
		return "links"
	case KindBacklinks:
		return "backlinks"
	case KindVerdicts:
		return "verdicts"
	default:
		return "unknown"
	}
}

// prefix returns the key-space prefix for the kind. Prefixes keep the
// three stores independent inside a single Badger keyspace.
func (k Kind) prefix() []byte {
	switch k {
	case KindLinks:
		return []byte("l|")
	case KindBacklinks:
		return []byte("b|")
	default:
		return []byte("v|")
	}
}

// Config configures a Store.
type Config struct {
	// Path is the directory for the Badger files. Required unless
	// InMemory is set. Created if missing.
	Path string

	// InMemory disables disk persistence. For tests.
	InMemory bool

	// SyncWrites forces fsync per write. Durable but slower; the cache
	// can always be refilled from the remote API, so the default is off.
	SyncWrites bool

	// Logger receives Badger's internal log output. Nil silences it.
	Logger *slog.Logger
}

// Store is the three-kind persistent cache. Safe for concurrent use by
// any number of searches; Badger provides per-key atomicity.
type Store struct {
	db *badger.DB
}

// badgerLogger adapts slog to Badger's printf-style Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the store. The caller must Close it when done.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("cache: path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("cache: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an empty, non-persistent store for tests.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func storageKey(kind Kind, key norm.PageKey) []byte {
	return append(kind.prefix(), key...)
}

// get reads the raw value for (kind, key). found is false on a miss;
// a miss is not an error.
func (s *Store) get(kind Kind, key norm.PageKey) (value []byte, found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey(kind, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %s/%s: %w", kind, key, err)
	}
	return value, found, nil
}

// put writes the value for (kind, key) in a single transaction. A write
// either lands fully or not at all.
func (s *Store) put(kind Kind, key norm.PageKey, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey(kind, key), value)
	})
	if err != nil {
		return fmt.Errorf("cache: write %s/%s: %w", kind, key, err)
	}
	return nil
}

// GetTitles returns the cached title set for a links or backlinks key.
func (s *Store) GetTitles(kind Kind, key norm.PageKey) ([]string, bool, error) {
	raw, found, err := s.get(kind, key)
	if err != nil || !found {
		return nil, false, err
	}
	var titles []string
	if err := json.Unmarshal(raw, &titles); err != nil {
		// A corrupt entry is treated as a miss; it will be re-fetched
		// and overwritten.
		return nil, false, nil
	}
	return titles, true, nil
}

// PutTitles stores the title set for a links or backlinks key.
func (s *Store) PutTitles(kind Kind, key norm.PageKey, titles []string) error {
	if titles == nil {
		titles = []string{}
	}
	raw, err := json.Marshal(titles)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", kind, key, err)
	}
	return s.put(kind, key, raw)
}

// GetVerdict returns the cached human/not-human verdict for a title.
func (s *Store) GetVerdict(key norm.PageKey) (verdict bool, found bool, err error) {
	raw, found, err := s.get(KindVerdicts, key)
	if err != nil || !found {
		return false, false, err
	}
	return len(raw) == 1 && raw[0] == 1, true, nil
}

// PutVerdict stores the human/not-human verdict for a title.
func (s *Store) PutVerdict(key norm.PageKey, verdict bool) error {
	v := []byte{0}
	if verdict {
		v[0] = 1
	}
	return s.put(KindVerdicts, key, v)
}

// Len reports the number of entries of one kind. Used by tests and the
// server's startup log line; it scans keys only, not values.
func (s *Store) Len(kind Kind) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = kind.prefix()
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache: count %s: %w", kind, err)
	}
	return count, nil
}
