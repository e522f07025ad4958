package graph

import (
	"fmt"
	"maps"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orneryd/tgraph/pkg/arena"
)

// TransactionStatus represents the current state of a transaction.
type TransactionStatus string

const (
	TxStatusActive     TransactionStatus = "active"
	TxStatusCommitted  TransactionStatus = "committed"
	TxStatusRolledBack TransactionStatus = "rolled_back"
)

// OperationType represents the type of operation in a transaction.
type OperationType string

const (
	OpNewNode    OperationType = "new_node"
	OpMutNode    OperationType = "mut_node"
	OpUpdateNode OperationType = "update_node"
	OpRemoveNode OperationType = "remove_node"
)

// maxMetadataChars bounds the total size of transaction metadata.
const maxMetadataChars = 2048

// Operation is one staged mutation. Only the fields for its Type are set.
type Operation struct {
	Type      OperationType
	Timestamp time.Time
	Index     NodeIndex

	node    Node
	edit    func(Node) error
	replace func(Node) (Node, error)
}

// Transaction buffers graph mutations until Graph.Commit.
//
// Staging only records intent: nothing is visible to readers, and no mirror
// link is touched, until the transaction is committed. NewNode reserves the
// node's handle right away so later operations in the same transaction can
// link to it.
//
// Example:
//
//	tx := graph.NewTransaction(ctx)
//	pkg, _ := tx.NewNode(&depgraph.Package{Name: "yaml"})
//	mod, _ := tx.NewNode(&depgraph.Module{Path: "gopkg.in/yaml.v3"})
//	_ = tx.UpdateNode(pkg, func(n graph.Node) graph.Node {
//		n.(*depgraph.Package).Module = graph.LinkTo(mod)
//		return n
//	})
//	if err := g.Commit(tx); err != nil {
//		return err
//	}
//
// A transaction that is dropped without Commit or Rollback returns its
// reserved handles once it is garbage collected; Rollback returns them
// immediately.
//
// Thread Safety:
//
//	Staging methods are safe for concurrent use, but the order of operations
//	staged from several goroutines is whatever order they acquire the lock.
type Transaction struct {
	mu sync.Mutex

	// Transaction identity
	ID        string
	StartTime time.Time
	Status    TransactionStatus

	ctx        *Context
	operations []Operation
	reserved   *reservations
	committing bool

	// Metadata is logged on commit.
	Metadata map[string]any
}

// NewTransaction opens a transaction against ctx.
func NewTransaction(ctx *Context) *Transaction {
	tx := &Transaction{
		ID:        uuid.NewString(),
		StartTime: time.Now(),
		Status:    TxStatusActive,
		ctx:       ctx,
		Metadata:  make(map[string]any),
	}
	if ctx != nil {
		tx.reserved = &reservations{alloc: ctx.alloc}
		runtime.AddCleanup(tx, (*reservations).release, tx.reserved)
	}
	return tx
}

// reservations tracks the handles a transaction has reserved but not yet
// published or released. It is kept apart from Transaction so it can be
// released after the transaction itself is unreachable.
type reservations struct {
	mu      sync.Mutex
	alloc   *arena.Allocator
	handles []NodeIndex
}

func (r *reservations) add(idx NodeIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = append(r.handles, idx)
}

// release frees every outstanding handle.
func (r *reservations) release() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, idx := range r.handles {
		r.alloc.Free(idx)
	}
	r.handles = nil
}

// forget drops the handles without freeing them; they now belong to the graph.
func (r *reservations) forget() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = nil
}

// IsActive returns true if the transaction is still active.
func (tx *Transaction) IsActive() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.Status == TxStatusActive
}

// NewNode stages the creation of n and returns its reserved handle.
// The transaction keeps its own copy of n.
func (tx *Transaction) NewNode(n Node) (NodeIndex, error) {
	if n == nil {
		return Empty(), ErrInvalidNode
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if err := tx.checkStageLocked(); err != nil {
		return Empty(), err
	}
	if !tx.ctx.schema.Has(n.NodeType()) {
		return Empty(), fmt.Errorf("%w: %d", ErrUnknownNodeType, n.NodeType())
	}

	idx := tx.ctx.alloc.Alloc()
	tx.reserved.add(idx)
	tx.operations = append(tx.operations, Operation{
		Type:      OpNewNode,
		Timestamp: time.Now(),
		Index:     idx,
		node:      n.Clone(),
	})
	return idx, nil
}

// MutNode stages an in-place edit of the node at idx.
//
// The edit must only touch data fields. Commit fails with ErrTopologyChanged
// if the node's outgoing links differ afterwards; use UpdateNode for that.
func (tx *Transaction) MutNode(idx NodeIndex, edit func(Node)) error {
	if edit == nil {
		return fmt.Errorf("%w: nil edit", ErrInvalidNode)
	}
	return tx.stageMut(idx, func(n Node) error {
		edit(n)
		return nil
	})
}

// UpdateNode stages a full replacement of the node at idx.
//
// replace receives a private copy of the node's value as of this point in the
// transaction and returns the new value, which must be of the same variant.
// Commit diffs the outgoing links of the old and new values and updates the
// mirrors on both sides.
func (tx *Transaction) UpdateNode(idx NodeIndex, replace func(Node) Node) error {
	if replace == nil {
		return fmt.Errorf("%w: nil replace", ErrInvalidNode)
	}
	return tx.stageUpdate(idx, func(n Node) (Node, error) {
		return replace(n), nil
	})
}

// RemoveNode stages the removal of the node at idx. At commit the node's
// outgoing links are unmirrored before its slot is tombstoned.
func (tx *Transaction) RemoveNode(idx NodeIndex) error {
	return tx.stage(Operation{Type: OpRemoveNode, Index: idx})
}

func (tx *Transaction) stageMut(idx NodeIndex, edit func(Node) error) error {
	return tx.stage(Operation{Type: OpMutNode, Index: idx, edit: edit})
}

func (tx *Transaction) stageUpdate(idx NodeIndex, replace func(Node) (Node, error)) error {
	return tx.stage(Operation{Type: OpUpdateNode, Index: idx, replace: replace})
}

func (tx *Transaction) stage(op Operation) error {
	if op.Index.IsEmpty() {
		return fmt.Errorf("%w: %s on empty handle", ErrNotFound, op.Type)
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()

	if err := tx.checkStageLocked(); err != nil {
		return err
	}
	op.Timestamp = time.Now()
	tx.operations = append(tx.operations, op)
	return nil
}

// Must be called with tx.mu held.
func (tx *Transaction) checkStageLocked() error {
	if tx.Status != TxStatusActive {
		return ErrTransactionClosed
	}
	if tx.committing {
		return ErrCommitInProgress
	}
	if tx.ctx.maxOps > 0 && len(tx.operations) >= tx.ctx.maxOps {
		return fmt.Errorf("%w: %d", ErrTooManyOperations, tx.ctx.maxOps)
	}
	return nil
}

// Rollback discards all staged operations and releases reserved handles.
func (tx *Transaction) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.Status != TxStatusActive {
		return ErrTransactionClosed
	}
	if tx.committing {
		return ErrCommitInProgress
	}
	tx.abortLocked()
	return nil
}

// beginCommit freezes tx for a commit against ctx and returns its operation
// log and a copy of its metadata. Staging and Rollback fail with
// ErrCommitInProgress until endCommit; read-only methods stay usable, so
// staged closures may call them.
func (tx *Transaction) beginCommit(ctx *Context) ([]Operation, map[string]any, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.Status != TxStatusActive {
		return nil, nil, ErrTransactionClosed
	}
	if tx.committing {
		return nil, nil, ErrCommitInProgress
	}
	if tx.ctx != ctx {
		return nil, nil, ErrContextMismatch
	}
	tx.committing = true
	return tx.operations, maps.Clone(tx.Metadata), nil
}

// endCommit closes a commit started by beginCommit.
func (tx *Transaction) endCommit(committed bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	tx.committing = false
	if committed {
		tx.finishLocked()
	} else {
		tx.abortLocked()
	}
}

// Must be called with tx.mu held.
func (tx *Transaction) abortLocked() {
	tx.reserved.release()
	tx.operations = nil
	tx.Status = TxStatusRolledBack
}

// Must be called with tx.mu held.
func (tx *Transaction) finishLocked() {
	tx.reserved.forget()
	tx.operations = nil
	tx.Status = TxStatusCommitted
}

// OperationCount returns the number of staged operations.
func (tx *Transaction) OperationCount() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.operations)
}

// Operations returns a copy of the operation log in staging order.
func (tx *Transaction) Operations() []Operation {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	out := make([]Operation, len(tx.operations))
	copy(out, tx.operations)
	return out
}

// SetMetadata merges metadata into the transaction's metadata, which is
// logged when the transaction commits. Keys and rendered values together are
// limited to 2048 characters per call.
func (tx *Transaction) SetMetadata(metadata map[string]any) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.Status != TxStatusActive {
		return ErrTransactionClosed
	}

	totalSize := 0
	for k, v := range metadata {
		totalSize += len(k)
		if v != nil {
			totalSize += len(fmt.Sprint(v))
		}
	}
	if totalSize > maxMetadataChars {
		return fmt.Errorf("transaction metadata too large: %d chars (max %d)", totalSize, maxMetadataChars)
	}

	if tx.Metadata == nil {
		tx.Metadata = make(map[string]any)
	}
	maps.Copy(tx.Metadata, metadata)
	return nil
}

// GetMetadata returns a copy of the transaction metadata.
func (tx *Transaction) GetMetadata() map[string]any {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return maps.Clone(tx.Metadata)
}
