package mcp

import (
	"encoding/json"
)

// ProtocolVersion is the MCP revision this client speaks.
const ProtocolVersion = "2024-11-05"

// Implementation describes a client or server implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities describes the feature set advertised by the server
// during initialization.
type ServerCapabilities struct {
	Tools     json.RawMessage `json:"tools,omitempty"`
	Prompts   json.RawMessage `json:"prompts,omitempty"`
	Resources json.RawMessage `json:"resources,omitempty"`
	Logging   json.RawMessage `json:"logging,omitempty"`
}

// InitializeResponse is the server's reply to the initialize request.
type InitializeResponse struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// SchemaProperty describes one parameter in a tool's input schema.
type SchemaProperty struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// ToolInputSchema is the JSON-Schema fragment describing a tool's arguments.
type ToolInputSchema struct {
	Type       string                     `json:"type,omitempty"`
	Properties map[string]*SchemaProperty `json:"properties,omitempty"`
	Required   []string                   `json:"required,omitempty"`
}

// Tool is a tool descriptor as discovered from the server.
type Tool struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolsResponse is the reply to a tools/list request.
type ToolsResponse struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// ContentType discriminates tool response content blocks.
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImage    ContentType = "image"
	ContentTypeResource ContentType = "resource"
)

// Content is one block of a tool response. Only text blocks carry a
// meaningful Text; other kinds are preserved but not interpreted.
type Content struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`
}

// ToolResponse is the reply to a tools/call request.
type ToolResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// FirstText returns the text of the first text-typed content block, or the
// empty string if the response has none.
func (r *ToolResponse) FirstText() string {
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			return c.Text
		}
	}
	return ""
}
