package graph

import (
	"strconv"
	"sync"
	"time"

	"github.com/graphloom/codegraph/pkg/types"
)

type opKind int

const (
	opCreateNode opKind = iota
	opUpdateNode
	opDeleteNode
	opCreateEdge
	opDeleteEdge
)

type pendingOp struct {
	kind opKind
	node types.CodeNode
	edge types.EdgeRelationship
}

// Transaction buffers a sequence of node/edge writes and applies them
// atomically on Commit, following the same buffer-then-apply shape as
// `pkg/storage/transaction.go`'s Operation log, generalized to also
// produce a Version recording what changed. No nested transactions
// (spec §4.1): Begin while already active is a programming error, not
// a recoverable one, so it is not guarded against here.
type Transaction struct {
	mu        sync.Mutex
	store     *Store
	isolation types.IsolationLevel
	status    types.TransactionStatus
	ops       []pendingOp
	metadata  map[string]string
}

// BeginTransaction starts a new transaction. The isolation level is
// stored on the Transaction but does not change how it reads: GetNode
// sees the transaction's own buffered writes first and otherwise reads
// the live store, so no level pins reads to the state at Begin time,
// and Commit does not check for writes made by others since Begin.
func (s *Store) BeginTransaction(isolation types.IsolationLevel) *Transaction {
	return &Transaction{
		store:     s,
		isolation: isolation,
		status:    types.TxActive,
		metadata:  make(map[string]string),
	}
}

func (tx *Transaction) requireActive() error {
	if tx.status != types.TxActive {
		return types.New(types.KindInvalidArgument, "transaction is %s, not active", tx.status)
	}
	return nil
}

// CreateNode buffers a node creation.
func (tx *Transaction) CreateNode(node types.CodeNode) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return err
	}
	tx.ops = append(tx.ops, pendingOp{kind: opCreateNode, node: node})
	return nil
}

// UpdateNode buffers a node update.
func (tx *Transaction) UpdateNode(node types.CodeNode) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return err
	}
	tx.ops = append(tx.ops, pendingOp{kind: opUpdateNode, node: node})
	return nil
}

// DeleteNode buffers a node deletion.
func (tx *Transaction) DeleteNode(id types.NodeId) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return err
	}
	tx.ops = append(tx.ops, pendingOp{kind: opDeleteNode, node: types.CodeNode{Id: id}})
	return nil
}

// CreateEdge buffers an edge creation.
func (tx *Transaction) CreateEdge(rel types.EdgeRelationship) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return err
	}
	tx.ops = append(tx.ops, pendingOp{kind: opCreateEdge, edge: rel})
	return nil
}

// DeleteEdge buffers an edge deletion.
func (tx *Transaction) DeleteEdge(rel types.EdgeRelationship) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return err
	}
	tx.ops = append(tx.ops, pendingOp{kind: opDeleteEdge, edge: rel})
	return nil
}

// GetNode reads through to the store, checked against this
// transaction's own buffered writes first so a transaction observes its
// own uncommitted changes (read-your-writes).
func (tx *Transaction) GetNode(id types.NodeId) (types.CodeNode, error) {
	tx.mu.Lock()
	for i := len(tx.ops) - 1; i >= 0; i-- {
		op := tx.ops[i]
		if op.kind == opDeleteNode && op.node.Id == id {
			tx.mu.Unlock()
			return types.CodeNode{}, types.New(types.KindNotFound, "node %s deleted in this transaction", id)
		}
		if (op.kind == opCreateNode || op.kind == opUpdateNode) && op.node.Id == id {
			tx.mu.Unlock()
			return op.node, nil
		}
	}
	tx.mu.Unlock()
	return tx.store.GetNode(id)
}

// OperationCount reports how many operations are currently buffered.
func (tx *Transaction) OperationCount() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.ops)
}

// SetMetadata attaches caller metadata to the transaction, persisted on
// the Version created by Commit.
func (tx *Transaction) SetMetadata(key, value string) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.metadata[key] = value
}

// Rollback discards every buffered operation without touching the
// store.
func (tx *Transaction) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return err
	}
	tx.status = types.TxAborted
	tx.ops = nil
	return nil
}

// Commit applies every buffered operation to the store atomically and
// records the result as a new Version, optionally advancing branch's
// head to it. Pass an empty branch to create a detached version.
func (tx *Transaction) Commit(meta CommitMeta) (*types.Version, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.requireActive(); err != nil {
		return nil, err
	}

	changes := make(map[types.NodeId]types.ChangeSet, len(tx.ops))
	for _, op := range tx.ops {
		var err error
		switch op.kind {
		case opCreateNode:
			err = tx.store.CreateNode(op.node)
			if err == nil {
				changes[op.node.Id] = types.ChangeSet{Kind: types.ChangeAdded, After: &op.node}
			}
		case opUpdateNode:
			before, getErr := tx.store.GetNode(op.node.Id)
			if getErr != nil {
				err = getErr
				break
			}
			err = tx.store.UpdateNode(op.node)
			if err == nil {
				changes[op.node.Id] = types.ChangeSet{Kind: types.ChangeModified, Before: &before, After: &op.node}
			}
		case opDeleteNode:
			before, getErr := tx.store.GetNode(op.node.Id)
			if getErr != nil {
				err = getErr
				break
			}
			err = tx.store.DeleteNode(op.node.Id)
			if err == nil {
				changes[op.node.Id] = types.ChangeSet{Kind: types.ChangeDeleted, Before: &before}
			}
		case opCreateEdge:
			err = tx.store.CreateEdge(op.edge)
		case opDeleteEdge:
			to := op.edge.To.Resolved
			err = tx.store.DeleteEdge(op.edge.From, op.edge.EdgeType, to)
		}
		if err != nil {
			tx.status = types.TxAborted
			return nil, types.Wrap(types.KindInternal, err, "commit transaction")
		}
	}

	version := &types.Version{
		Id:             types.NewNodeId(meta.Name, types.Location{}, meta.Description),
		Name:           meta.Name,
		Description:    meta.Description,
		Author:         meta.Author,
		CreatedAt:      meta.CreatedAt,
		ParentVersions: meta.Parents,
		Metrics:        map[string]string{"operationCount": strconv.Itoa(len(tx.ops))},
	}
	if err := tx.store.putVersion(*version, changes); err != nil {
		return nil, err
	}
	if meta.Branch != "" {
		if err := tx.store.moveBranch(meta.Branch, version.Id); err != nil {
			return nil, err
		}
	}

	tx.status = types.TxCommitted
	return version, nil
}

// CommitMeta supplies the human-facing fields of the Version a Commit
// produces. Branch, if non-empty, is moved to point at the new version.
// Parents should normally be the branch's current head.
type CommitMeta struct {
	Name        string
	Description string
	Author      string
	CreatedAt   time.Time
	Parents     []types.VersionId
	Branch      string
}
