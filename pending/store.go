// Package pending persists return-of-control events that are suspended
// awaiting user confirmation, so a dispatch can be resumed in a later turn
// or by another process. Entries are keyed by invocation ID.
package pending

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned when no pending entry exists for an invocation ID.
var ErrNotFound = errors.New("pending invocation not found")

// Pending is one suspended return-of-control event.
type Pending struct {
	InvocationID string          `json:"invocationId"`
	Event        json.RawMessage `json:"event"`
	SessionState json.RawMessage `json:"sessionState,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Store persists suspended events. Take removes the entry it returns, so an
// invocation is resumed at most once.
type Store interface {
	Put(ctx context.Context, p *Pending) error
	Take(ctx context.Context, invocationID string) (*Pending, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, invocationID string) error
}
