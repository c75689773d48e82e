// Package kv provides the ordered key-value abstraction the graph store
// is built on: badger/v4 underneath, with column families modeled as key
// prefixes (the same scheme nornicdb's BadgerEngine uses for its node,
// edge, and index keys), atomic batches, prefix iteration, snapshots, and
// per-key TTLs for cache-adjacent use cases.
package kv

import (
	"bytes"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/graphloom/codegraph/pkg/types"
)

// ColumnFamily is a single-byte key prefix separating logically distinct
// keyspaces within one badger database, mirroring nornicdb's prefixNode/
// prefixEdge/prefixLabelIndex scheme rather than opening one badger
// instance per concern.
type ColumnFamily byte

const (
	CFNodes ColumnFamily = iota + 1
	CFEdgesOut
	CFEdgesIn
	CFLabelIndex
	CFVersions
	CFBranches
	CFTags
	CFVectors
	CFMeta
)

// Options configures a Store.
type Options struct {
	// DataDir is where badger stores its files. Required unless InMemory.
	DataDir string

	// InMemory runs badger with no on-disk footprint, for tests.
	InMemory bool

	// SyncWrites forces fsync after every write; slower, more durable.
	SyncWrites bool

	// LowMemory applies the reduced buffer sizes nornicdb uses by
	// default in containerized environments.
	LowMemory bool
}

// Store is a single badger database shared across all column families.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a Store at the configured location.
func Open(opts Options) (*Store, error) {
	bo := badger.DefaultOptions(opts.DataDir).WithLogger(nil)
	if opts.InMemory {
		bo = bo.WithInMemory(true)
	}
	if opts.SyncWrites {
		bo = bo.WithSyncWrites(true)
	}
	if opts.LowMemory {
		bo = bo.
			WithMemTableSize(16 << 20).
			WithValueLogFileSize(64 << 20).
			WithNumMemtables(2).
			WithNumLevelZeroTables(2).
			WithNumLevelZeroTablesStall(4).
			WithValueThreshold(1024).
			WithBlockCacheSize(32 << 20).
			WithIndexCacheSize(16 << 20)
	}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, types.Wrap(types.KindUnavailable, err, "open kv store at %s", opts.DataDir)
	}
	return &Store{db: db}, nil
}

// OpenInMemory is a convenience constructor for tests.
func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

// Close flushes and releases the underlying database. Safe to call more
// than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return types.Wrap(types.KindInternal, err, "close kv store")
	}
	return nil
}

func cfKey(cf ColumnFamily, key []byte) []byte {
	out := make([]byte, 0, 1+len(key))
	out = append(out, byte(cf))
	out = append(out, key...)
	return out
}

// Get fetches a value by (column family, key), returning a NotFound
// error (per the error taxonomy) when the key is absent.
func (s *Store) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cfKey(cf, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, types.New(types.KindNotFound, "key not found in column family %d", cf)
	}
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "get key from column family %d", cf)
	}
	return value, nil
}

// Put writes a (column family, key) -> value pair. A ttlSeconds of 0
// means no expiry.
func (s *Store) Put(cf ColumnFamily, key, value []byte, ttlSeconds int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cfKey(cf, key), value)
		if ttlSeconds > 0 {
			entry = entry.WithTTL(time.Duration(ttlSeconds) * time.Second)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return types.Wrap(types.KindInternal, err, "put key in column family %d", cf)
	}
	return nil
}

// Delete removes a (column family, key) pair. Deleting an absent key is
// not an error.
func (s *Store) Delete(cf ColumnFamily, key []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cfKey(cf, key))
	})
	if err != nil {
		return types.Wrap(types.KindInternal, err, "delete key from column family %d", cf)
	}
	return nil
}

// PrefixIterate calls fn for every key in cf whose suffix starts with
// prefix, in key order, stopping early if fn returns false or an error.
func (s *Store) PrefixIterate(cf ColumnFamily, prefix []byte, fn func(key, value []byte) (bool, error)) error {
	fullPrefix := cfKey(cf, prefix)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix); it.Next() {
			item := it.Item()
			suffix := bytes.TrimPrefix(item.KeyCopy(nil), []byte{byte(cf)})
			var cont bool
			var value []byte
			if err := item.Value(func(val []byte) error {
				value = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
			ok, err := fn(suffix, value)
			if err != nil {
				return err
			}
			cont = ok
			if !cont {
				break
			}
		}
		return nil
	})
}

// Snapshot returns a read-only view pinned to the database state at the
// moment it was taken, for callers that need several reads to observe a
// single consistent point (e.g. a repeatable-read transaction).
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{txn: s.db.NewTransaction(false)}
}

// Snapshot is a read-only, point-in-time view of the store.
type Snapshot struct {
	txn *badger.Txn
}

// Get reads a key as of the snapshot's creation.
func (sn *Snapshot) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	item, err := sn.txn.Get(cfKey(cf, key))
	if err == badger.ErrKeyNotFound {
		return nil, types.New(types.KindNotFound, "key not found in column family %d", cf)
	}
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "get key from snapshot")
	}
	var value []byte
	err = item.Value(func(val []byte) error {
		value = append([]byte(nil), val...)
		return nil
	})
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "read value from snapshot")
	}
	return value, nil
}

// Discard releases the snapshot. Callers must call this when done.
func (sn *Snapshot) Discard() { sn.txn.Discard() }
