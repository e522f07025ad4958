package graph

import "errors"

// Common errors
var (
	ErrNotFound          = errors.New("node not found")
	ErrInvalidNode       = errors.New("invalid node")
	ErrUnknownNodeType   = errors.New("unknown node type")
	ErrVariantMismatch   = errors.New("node variant does not match")
	ErrDanglingLink      = errors.New("link target does not exist")
	ErrLinkTypeMismatch  = errors.New("link target variant has no matching mirror")
	ErrTopologyChanged   = errors.New("mut_node changed link topology")
	ErrContextMismatch   = errors.New("transaction belongs to a different context")
	ErrInconsistentGraph = errors.New("graph violates bidirectional link invariant")
	ErrInvalidSchema     = errors.New("invalid schema")
	ErrOperationPanicked = errors.New("staged operation panicked")
)

// Transaction errors
var (
	ErrNoTransaction     = errors.New("no transaction")
	ErrTransactionClosed = errors.New("transaction already closed")
	ErrCommitInProgress  = errors.New("transaction is being committed")
	ErrTooManyOperations = errors.New("transaction operation limit reached")
)
