// Package kv wraps BadgerDB as the single log-structured merge-tree backend
// that every higher-level store (graph, vector, history) writes its
// namespace into. Badger's own write-ahead log and fsync-on-commit behavior
// is what gives the engine crash atomicity; nothing above this package
// re-implements a WAL of its own.
package kv

import (
	"log"

	"github.com/dgraph-io/badger/v4"
)

// Store is a thin handle around a *badger.DB. Callers use Update/View to run
// Badger transactions directly against it; Store itself does not interpret
// keys — that is the job of the namespace-owning packages.
type Store struct {
	DB *badger.DB
}

// Options configures how the backing Badger database is opened.
type Options struct {
	// Path is the directory Badger stores its SSTables and value log in.
	// Ignored when InMemory is true.
	Path string

	// InMemory runs Badger with no on-disk files. Used by tests and by
	// ephemeral engine instances; data does not survive process exit.
	InMemory bool

	// SyncWrites forces an fsync on every commit. Slower, more durable.
	// Mirrors nornicdb's BadgerOptions.SyncWrites.
	SyncWrites bool

	// LowMemory trims Badger's in-memory tables for constrained hosts.
	LowMemory bool

	// Logger receives Badger's internal log lines. When nil, Badger's
	// internal logging is discarded.
	Logger badger.Logger
}

// discardLogger silences Badger's internal logging; Open installs it
// whenever Options.Logger is nil, without disabling logging process-wide.
type discardLogger struct{}

func (discardLogger) Errorf(string, ...interface{})   {}
func (discardLogger) Warningf(string, ...interface{}) {}
func (discardLogger) Infof(string, ...interface{})    {}
func (discardLogger) Debugf(string, ...interface{})   {}

// Open creates or opens a Badger-backed Store at the given options.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	bopts = bopts.WithInMemory(opts.InMemory)
	bopts = bopts.WithSyncWrites(opts.SyncWrites)
	if opts.LowMemory {
		bopts = bopts.WithMemTableSize(16 << 20).WithNumMemtables(2).WithNumLevelZeroTables(2)
	}
	if opts.Logger != nil {
		bopts = bopts.WithLogger(opts.Logger)
	} else {
		bopts = bopts.WithLogger(discardLogger{})
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// OpenInMemory opens an ephemeral, unsynced store. Convenience wrapper
// matching nornicdb's NewBadgerEngineInMemory, used throughout this
// module's tests.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// Close flushes and releases the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Sync forces a value-log sync, matching BadgerEngine.Sync.
func (s *Store) Sync() error {
	return s.DB.Sync()
}

// RunGC runs one pass of Badger's value-log garbage collection. When Badger
// reports badger.ErrNoRewrite (nothing to reclaim) or badger.ErrRejected,
// RunGC logs it and returns nil — mirrors BadgerEngine.RunGC.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.DB.RunValueLogGC(discardRatio)
	if err == badger.ErrNoRewrite || err == badger.ErrRejected {
		log.Printf("kv: value log GC pass found nothing to reclaim")
		return nil
	}
	return err
}

// Size reports on-disk LSM-tree and value-log sizes in bytes.
func (s *Store) Size() (lsm, vlog int64) {
	return s.DB.Size()
}
