// Package badgerstore keeps saved penknot documents in a BadgerDB database.
//
// Blocks are stored under the key "folder/block". The store satisfies the
// penknot cold storage interface without importing it.
package badgerstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Options configures the database.
type Options struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool

	// SyncWrites flushes every write to disk before returning.
	SyncWrites bool

	// Logger receives badger's internal logs. Nil disables them.
	Logger *slog.Logger
}

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

// Store is a cold storage backend over BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var bo badger.Options
	if opts.InMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", opts.Path, err)
		}
		bo = badger.DefaultOptions(opts.Path)
	}
	bo = bo.WithSyncWrites(opts.SyncWrites).WithNumVersionsToKeep(1)
	if opts.Logger != nil {
		bo = bo.WithLogger(&badgerLogger{logger: opts.Logger})
	} else {
		bo = bo.WithLogger(nil)
	}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

func key(folder, block string) []byte {
	return []byte(folder + "/" + block)
}

// Set stores data for a block within a folder.
func (s *Store) Set(folder, block string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(folder, block), data)
	})
}

// Get retrieves a block. A missing block reports fs.ErrNotExist.
func (s *Store) Get(folder, block string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(folder, block))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s/%s: %w", folder, block, fs.ErrNotExist)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes a block. A missing block reports fs.ErrNotExist.
func (s *Store) Delete(folder, block string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(folder, block)
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s/%s: %w", folder, block, fs.ErrNotExist)
	}
	return err
}

// Folders returns every folder holding at least one block.
func (s *Store) Folders() ([]string, error) {
	seen := make(map[string]bool)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			if folder, _, ok := strings.Cut(k, "/"); ok {
				seen[folder] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	slices.Sort(out)
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
