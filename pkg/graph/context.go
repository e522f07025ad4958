package graph

import (
	"github.com/go-logr/logr"

	"github.com/orneryd/tgraph/pkg/arena"
	"github.com/orneryd/tgraph/pkg/config"
	"github.com/orneryd/tgraph/pkg/metrics"
)

// Context is the process-wide object shared by a Graph and the Transactions
// committed against it: the schema, the slot allocator handles are reserved
// from, and the ambient logger and metrics.
//
// A Transaction can only be committed to a Graph created from the same
// Context.
type Context struct {
	schema  *Schema
	alloc   *arena.Allocator
	log     logr.Logger
	metrics *metrics.Collector

	verifyOnCommit bool
	capacity       int
	maxOps         int
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. The default discards everything.
var WithLogger = func(log logr.Logger) Option {
	return func(c *Context) {
		c.log = log
	}
}

// WithMetrics sets the Prometheus collector. nil disables metrics.
var WithMetrics = func(m *metrics.Collector) Option {
	return func(c *Context) {
		c.metrics = m
	}
}

// WithVerifyOnCommit re-checks the bidirectional link invariant over the
// whole graph before each commit is published.
var WithVerifyOnCommit = func(enabled bool) Option {
	return func(c *Context) {
		c.verifyOnCommit = enabled
	}
}

// WithInitialCapacity pre-sizes node storage.
var WithInitialCapacity = func(n int) Option {
	return func(c *Context) {
		c.capacity = n
	}
}

// WithMaxStagedOperations caps the operation log of each transaction.
// Zero means unlimited.
var WithMaxStagedOperations = func(n int) Option {
	return func(c *Context) {
		c.maxOps = n
	}
}

// WithConfig applies the graph section of cfg.
var WithConfig = func(cfg *config.Config) Option {
	return func(c *Context) {
		if cfg == nil {
			return
		}
		c.verifyOnCommit = cfg.Graph.VerifyOnCommit
		c.capacity = cfg.Graph.InitialCapacity
		c.maxOps = cfg.Graph.MaxStagedOperations
	}
}

// NewContext creates a context for schema.
func NewContext(schema *Schema, opts ...Option) *Context {
	c := &Context{
		schema: schema,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.capacity < 0 {
		c.capacity = 0
	}
	c.alloc = arena.NewAllocator(c.capacity)
	return c
}

// Schema returns the schema the context was created for.
func (c *Context) Schema() *Schema {
	return c.schema
}

// Logger returns the context logger.
func (c *Context) Logger() logr.Logger {
	return c.log
}
