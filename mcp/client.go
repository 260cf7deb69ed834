// Package mcp implements a Model Context Protocol client: a persistent
// session over a pluggable transport, exposing tool discovery and remote
// tool invocation. One client owns one connection; all calls share it.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp/internal/protocol"
	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpbridge", "mcp")

//go:generate mockgen -source=client.go -destination=../mocks/mockmcp/mcp_mock.gen.go -package mockmcp

// ToolCaller is the remote-invocation surface consumed by the capability
// catalog. *Client implements it.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResponse, error)
}

// Client is an MCP client session. It must be initialized with Initialize
// before tools can be listed or called, and is safe for concurrent use
// afterwards.
type Client struct {
	protocol    *protocol.Protocol
	transport   transport.Transport
	clientInfo  Implementation
	initialized bool

	serverInfo   *Implementation
	capabilities *ServerCapabilities
}

// NewClient creates a client over the given transport. The transport is
// started by Initialize.
func NewClient(tr transport.Transport) *Client {
	c := &Client{
		protocol:  protocol.New(),
		transport: tr,
		clientInfo: Implementation{
			Name:    "mcpbridge",
			Version: "1.0.0",
		},
	}
	c.protocol.OnError = func(err error) {
		logger.KV(xlog.WARNING, "reason", "protocol", "err", err.Error())
	}
	return c
}

// Initialize performs the MCP handshake: it starts the transport, sends the
// initialize request and the initialized notification.
func (c *Client) Initialize(ctx context.Context) (*InitializeResponse, error) {
	if c.initialized {
		return nil, errors.New("client already initialized")
	}

	if err := c.protocol.Connect(c.transport); err != nil {
		return nil, errors.WithMessage(err, "failed to connect transport")
	}

	params := map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      c.clientInfo,
	}

	var response InitializeResponse
	if err := c.request(ctx, "initialize", params, &response); err != nil {
		return nil, errors.WithMessage(err, "failed to initialize")
	}

	if err := c.protocol.Notification("notifications/initialized", nil); err != nil {
		return nil, errors.WithMessage(err, "failed to send initialized notification")
	}

	c.initialized = true
	c.serverInfo = &response.ServerInfo
	c.capabilities = &response.Capabilities

	logger.ContextKV(ctx, xlog.DEBUG,
		"server", response.ServerInfo.Name,
		"version", response.ServerInfo.Version,
	)
	return &response, nil
}

// ServerInfo returns the implementation info reported by the server, or nil
// before Initialize.
func (c *Client) ServerInfo() *Implementation {
	return c.serverInfo
}

// Capabilities returns the capabilities reported by the server, or nil
// before Initialize.
func (c *Client) Capabilities() *ServerCapabilities {
	return c.capabilities
}

// ListTools returns one page of discovered tools.
func (c *Client) ListTools(ctx context.Context, cursor *string) (*ToolsResponse, error) {
	if !c.initialized {
		return nil, errors.New("client not initialized")
	}

	params := map[string]any{}
	if cursor != nil {
		params["cursor"] = *cursor
	}

	var response ToolsResponse
	if err := c.request(ctx, "tools/list", params, &response); err != nil {
		return nil, errors.WithMessage(err, "failed to list tools")
	}
	return &response, nil
}

// ListAllTools follows nextCursor pagination and returns every discovered
// tool.
func (c *Client) ListAllTools(ctx context.Context) ([]Tool, error) {
	var all []Tool
	var cursor *string
	for {
		page, err := c.ListTools(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Tools...)
		if page.NextCursor == nil {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// CallTool invokes the named tool with the given arguments. A tool-level
// failure (isError) is returned as an ordinary error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResponse, error) {
	if !c.initialized {
		return nil, errors.New("client not initialized")
	}
	if args == nil {
		args = map[string]any{}
	}

	params := map[string]any{
		"name":      name,
		"arguments": args,
	}

	var response ToolResponse
	if err := c.request(ctx, "tools/call", params, &response); err != nil {
		return nil, errors.WithMessagef(err, "failed to call tool %q", name)
	}
	if response.IsError {
		return nil, errors.Errorf("tool %q failed: %s", name, response.FirstText())
	}
	return &response, nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	var response json.RawMessage
	return c.request(ctx, "ping", map[string]any{}, &response)
}

// Close shuts down the underlying transport.
func (c *Client) Close() error {
	return c.protocol.Close()
}

func (c *Client) request(ctx context.Context, method string, params any, out any) error {
	result, err := c.protocol.Request(ctx, method, params, nil)
	if err != nil {
		return err
	}

	raw, ok := result.(json.RawMessage)
	if !ok {
		data, err := json.Marshal(result)
		if err != nil {
			return errors.WithMessage(err, "failed to remarshal result")
		}
		raw = data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.WithMessagef(err, "failed to unmarshal %s result", method)
	}
	return nil
}
