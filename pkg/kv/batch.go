package kv

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/graphloom/codegraph/pkg/types"
)

// Batch accumulates writes across one or more column families and applies
// them atomically, mirroring the multi-key atomic writes a graph
// transaction's Commit needs (one node write plus several index updates
// must land together or not at all).
type Batch struct {
	store *Store
	ops   []batchOp
}

type batchOp struct {
	cf     ColumnFamily
	key    []byte
	value  []byte
	delete bool
}

// NewBatch starts a new atomic batch against s.
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s}
}

// Put stages a write.
func (b *Batch) Put(cf ColumnFamily, key, value []byte) *Batch {
	b.ops = append(b.ops, batchOp{cf: cf, key: key, value: value})
	return b
}

// Delete stages a deletion.
func (b *Batch) Delete(cf ColumnFamily, key []byte) *Batch {
	b.ops = append(b.ops, batchOp{cf: cf, key: key, delete: true})
	return b
}

// Len reports how many operations are staged.
func (b *Batch) Len() int { return len(b.ops) }

// Commit applies every staged operation in a single badger transaction.
// Either all operations land or none do.
func (b *Batch) Commit() error {
	err := b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			k := cfKey(op.cf, op.key)
			if op.delete {
				if err := txn.Delete(k); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(k, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.Wrap(types.KindInternal, err, "commit batch of %d operations", len(b.ops))
	}
	return nil
}
