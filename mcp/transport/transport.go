package transport

import (
	"context"
)

// JsonRpcBody is the parsed result body of a JSON-RPC response.
type JsonRpcBody any

// Transport describes the minimal contract for sending and receiving JSON-RPC
// messages between an MCP client and server. Implementations include a stdio
// subprocess pipe, an HTTP+SSE session, and an in-process loopback.
//
// Messages are partially deserialized into a BaseJsonRpcMessage before being
// handed to the message handler; the protocol layer above performs
// request/response correlation.
type Transport interface {
	// Start begins processing messages on the transport, including any
	// connection steps that might need to be taken.
	Start(ctx context.Context) error

	// Send sends a JSON-RPC message (request, notification or response).
	Send(ctx context.Context, message *BaseJsonRpcMessage) error

	// Close closes the connection.
	Close() error

	// SetCloseHandler sets the callback for when the connection is closed for
	// any reason. This should be invoked when Close() is called as well.
	SetCloseHandler(handler func())

	// SetErrorHandler sets the callback for when an error occurs.
	// Note that errors are not necessarily fatal; they are used for reporting
	// any kind of exceptional condition out of band.
	SetErrorHandler(handler func(err error))

	// SetMessageHandler sets the callback for when a message (request,
	// notification or response) is received over the connection.
	SetMessageHandler(handler func(ctx context.Context, message *BaseJsonRpcMessage))
}
