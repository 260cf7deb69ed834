// Package bridge wires a connected MCP capability source into an LLM
// orchestrator's return-of-control loop: one call discovers the server's
// tools, builds the bounded function catalog and the dispatch registry, and
// exposes event processing over raw JSON session state.
package bridge

import (
	"context"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/catalog"
	"github.com/effective-security/mcpbridge/confirm"
	"github.com/effective-security/mcpbridge/mcp"
	"github.com/effective-security/mcpbridge/roc"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpbridge", "bridge")

//go:generate mockgen -source=bridge.go -destination=../mocks/mockbridge/bridge_mock.gen.go -package mockbridge

// CapabilitySource is the connected tool-providing session consumed by the
// bridge. *mcp.Client implements it.
type CapabilitySource interface {
	ListAllTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.ToolResponse, error)
}

// Bridge owns the catalog, registry and dispatcher for one capability
// source. The catalog and registry are written during New and read-only
// afterwards; Process may be called from any goroutine.
type Bridge struct {
	source     CapabilitySource
	catalog    *catalog.Catalog
	registry   *catalog.Registry
	dispatcher *roc.Dispatcher
	cfg        options
}

// New discovers the source's tools and builds the bridge.
func New(ctx context.Context, source CapabilitySource, opts ...Option) (*Bridge, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	tools, err := source.ListAllTools(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to discover tools")
	}

	cat, err := catalog.BuildCatalog(tools, cfg.filter)
	if err != nil {
		return nil, err
	}
	reg, err := catalog.BuildRegistry(source, tools, cfg.filter)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		source:   source,
		catalog:  cat,
		registry: reg,
	}

	var dopts []roc.Option
	if cfg.gate != nil {
		dopts = append(dopts, roc.WithGate(cfg.gate))
	}
	if cfg.pendingStore != nil {
		dopts = append(dopts, roc.WithPendingStore(cfg.pendingStore))
	}
	b.dispatcher = roc.NewDispatcher(reg, dopts...)
	b.cfg = cfg

	logger.ContextKV(ctx, xlog.DEBUG, "tools", cat.Len())
	return b, nil
}

// Definitions returns the function definitions to advertise to the
// orchestrator, in discovery order.
func (b *Bridge) Definitions() []*catalog.FunctionDefinition {
	return b.catalog.Definitions()
}

// ActionGroup returns the action-group name this bridge serves, if one was
// configured.
func (b *Bridge) ActionGroup() string {
	return b.cfg.actionGroup
}

// Registry returns the dispatch table.
func (b *Bridge) Registry() *catalog.Registry {
	return b.registry
}

// RegisterLocalTool adds an in-process Go tool alongside the discovered
// remote ones. The args struct's fields become the function's parameters.
// It must be called before the first Process.
func (b *Bridge) RegisterLocalTool(name, description string, argsType reflect.Type, fn catalog.InvocableFunc) error {
	def, err := catalog.DefinitionFromStruct(name, description, argsType)
	if err != nil {
		return err
	}
	if err := b.catalog.Add(def); err != nil {
		return err
	}
	return b.registry.Add(name, fn)
}

// Process handles one raw return-of-control event against the given raw
// session state and returns the patched session state carrying the result
// batch.
func (b *Bridge) Process(ctx context.Context, sessionState, rawEvent []byte) ([]byte, error) {
	event, err := roc.ParseEvent(rawEvent)
	if err != nil {
		return nil, err
	}

	batch, err := b.dispatcher.Process(ctx, sessionState, event)
	if err != nil {
		return nil, err
	}
	return batch.PatchSessionState(sessionState)
}

// Resume completes a suspended event with the recorded decisions and returns
// the patched session state.
func (b *Bridge) Resume(ctx context.Context, sessionState []byte, invocationID string, decisions confirm.Decisions) ([]byte, error) {
	batch, err := b.dispatcher.Resume(ctx, invocationID, decisions)
	if err != nil {
		return nil, err
	}
	return batch.PatchSessionState(sessionState)
}
