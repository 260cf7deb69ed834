package bridge

import (
	"github.com/effective-security/mcpbridge/confirm"
	"github.com/effective-security/mcpbridge/pending"
)

// Option is a function that can be used to modify the Bridge configuration.
type Option func(*options)

type options struct {
	filter       []string
	gate         confirm.Gate
	pendingStore pending.Store
	actionGroup  string
}

// WithToolFilter restricts which discovered tools are included in the
// catalog and registry. An empty filter includes all.
func WithToolFilter(names ...string) Option {
	return func(c *options) {
		c.filter = names
	}
}

// WithGate sets the confirmation gate for USER_CONFIRMATION-style
// invocations.
func WithGate(g confirm.Gate) Option {
	return func(c *options) {
		c.gate = g
	}
}

// WithPendingStore enables two-phase confirmation: events requiring
// confirmation suspend into the store when no gate is configured.
func WithPendingStore(s pending.Store) Option {
	return func(c *options) {
		c.pendingStore = s
	}
}

// WithActionGroup sets the action-group name this bridge serves.
func WithActionGroup(name string) Option {
	return func(c *options) {
		c.actionGroup = name
	}
}
