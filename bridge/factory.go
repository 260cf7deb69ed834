package bridge

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/config"
	"github.com/effective-security/mcpbridge/confirm"
	"github.com/effective-security/mcpbridge/mcp"
	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/mcpbridge/mcp/transport/sse"
	"github.com/effective-security/mcpbridge/mcp/transport/stdio"
	"github.com/effective-security/xlog"
)

// NewSource is a wrapper for CreateSource to allow for overriding the
// default implementation.
var NewSource = CreateSource

// Connection is one live capability source with the bridge built over it.
type Connection struct {
	Name   string
	Source CapabilitySource
	Bridge *Bridge
}

// Close shuts down the underlying client connection.
func (c *Connection) Close() error {
	if closer, ok := c.Source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Load reads the bridge configuration from file and connects every listed
// server.
func Load(ctx context.Context, location string, opts ...Option) ([]*Connection, error) {
	cfg, err := config.Load(location)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, cfg, opts...)
}

// Connect builds one connection per configured server. Each server's
// AllowedTools list narrows its catalog, its name becomes the action group,
// and functions listed in RequireConfirmation are routed through the
// configured gate while all others are confirmed automatically. On failure
// the already opened connections are closed.
func Connect(ctx context.Context, cfg *config.Config, opts ...Option) ([]*Connection, error) {
	conns := make([]*Connection, 0, len(cfg.Servers))
	for _, srv := range cfg.Servers {
		conn, err := connectServer(ctx, srv, opts)
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

func connectServer(ctx context.Context, srv *config.ServerConfig, opts []Option) (*Connection, error) {
	source, err := NewSource(ctx, srv)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect server %q", srv.Name)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bopts := []Option{
		WithToolFilter(srv.AllowedTools...),
		WithActionGroup(srv.Name),
	}
	bopts = append(bopts, opts...)
	if len(srv.RequireConfirmation) > 0 {
		bopts = append(bopts, WithGate(confirm.NewPolicy(srv.RequireConfirmation, o.gate)))
	}

	b, err := New(ctx, source, bopts...)
	if err != nil {
		if closer, ok := source.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, errors.WithMessagef(err, "failed to build bridge for server %q", srv.Name)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "server", srv.Name, "transport", srv.Transport)
	return &Connection{
		Name:   srv.Name,
		Source: source,
		Bridge: b,
	}, nil
}

// CreateSource dials the configured server and completes the MCP handshake.
func CreateSource(ctx context.Context, srv *config.ServerConfig) (CapabilitySource, error) {
	tr, err := NewTransport(srv)
	if err != nil {
		return nil, err
	}

	client := mcp.NewClient(tr)
	if _, err := client.Initialize(ctx); err != nil {
		return nil, errors.WithMessagef(err, "failed to initialize server %q", srv.Name)
	}
	return client, nil
}

// NewTransport builds the client transport for the configured server. The
// local transport has no dialable address; hosts holding an in-process pair
// construct their bridge with New directly.
func NewTransport(srv *config.ServerConfig) (transport.Transport, error) {
	switch srv.Transport {
	case config.TransportStdio:
		return stdio.New(srv.Command, srv.Args...).WithEnv(srv.Env...), nil
	case config.TransportSSE:
		tr := sse.New(srv.URL)
		for key, value := range srv.Headers {
			tr.WithHeader(key, value)
		}
		return tr, nil
	case config.TransportLocal:
		return nil, errors.Errorf("server %q: local transport has no address to dial", srv.Name)
	}
	return nil, errors.Errorf("server %q: unsupported transport: %s", srv.Name, srv.Transport)
}
