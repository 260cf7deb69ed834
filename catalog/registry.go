package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp"
	"github.com/effective-security/x/slices"
)

//go:generate mockgen -source=registry.go -destination=../mocks/mockcatalog/catalog_mock.gen.go -package mockcatalog

// Invocable is a single callable wrapper: it receives decoded arguments and
// returns the text result. Remote tools and plain Go functions share this
// one contract, so the dispatcher never branches on callable kind.
type Invocable interface {
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// InvocableFunc adapts a plain function to the Invocable interface.
type InvocableFunc func(ctx context.Context, args map[string]any) (string, error)

// Invoke implements Invocable.
func (f InvocableFunc) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return f(ctx, args)
}

// Registry maps function name to its invocable wrapper. Like the catalog, it
// is built once at setup and read-only during dispatch.
type Registry struct {
	m map[string]Invocable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		m: make(map[string]Invocable),
	}
}

// Add registers an invocable under the given name; duplicate names are a
// caller error.
func (r *Registry) Add(name string, inv Invocable) error {
	if _, ok := r.m[name]; ok {
		return errors.Errorf("tool %q is already registered", name)
	}
	r.m[name] = inv
	return nil
}

// Get returns the invocable for the given name.
func (r *Registry) Get(name string) (Invocable, bool) {
	inv, ok := r.m[name]
	return inv, ok
}

// Len returns the number of registered invocables.
func (r *Registry) Len() int {
	return len(r.m)
}

// BuildRegistry wires each included tool to an invocable that forwards the
// call to the shared capability-source session and returns the first
// text-typed content block of the response. No connection is opened per
// call, and no retry is attempted.
func BuildRegistry(src mcp.ToolCaller, tools []mcp.Tool, filter []string) (*Registry, error) {
	r := NewRegistry()
	for _, tool := range tools {
		if len(filter) > 0 && !slices.Contains(filter, tool.Name) {
			continue
		}
		if err := r.Add(tool.Name, &toolInvocable{src: src, name: tool.Name}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type toolInvocable struct {
	src  mcp.ToolCaller
	name string
}

func (t *toolInvocable) Invoke(ctx context.Context, args map[string]any) (string, error) {
	resp, err := t.src.CallTool(ctx, t.name, args)
	if err != nil {
		return "", err
	}
	return resp.FirstText(), nil
}
