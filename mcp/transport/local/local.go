// Package local provides an in-process transport pair: messages sent on one
// end are delivered to the message handler of the other. It is used for
// embedded servers and tests, where no subprocess or network hop is wanted.
package local

import (
	"context"
	"sync"

	"github.com/effective-security/mcpbridge/mcp/transport"
)

// Transport is one end of an in-process transport pair.
type Transport struct {
	peer *Transport

	messageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	mu             sync.RWMutex
}

// Pair creates two linked transports. Messages sent on either end are
// delivered to the other end's message handler.
func Pair() (*Transport, *Transport) {
	a := &Transport{}
	b := &Transport{}
	a.peer = b
	b.peer = a
	return a, b
}

// Start implements Transport.Start; the local transport is always connected.
func (t *Transport) Start(ctx context.Context) error {
	return nil
}

// Send implements Transport.Send: it delivers the message to the peer's
// handler on a separate goroutine, so a handler that sends a reply does not
// deadlock.
func (t *Transport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	t.peer.mu.RLock()
	handler := t.peer.messageHandler
	t.peer.mu.RUnlock()

	if handler != nil {
		go handler(ctx, message)
	}
	return nil
}

// Close implements Transport.Close
func (t *Transport) Close() error {
	t.mu.RLock()
	closeHandler := t.closeHandler
	t.mu.RUnlock()
	if closeHandler != nil {
		closeHandler()
	}
	return nil
}

// SetCloseHandler implements Transport.SetCloseHandler
func (t *Transport) SetCloseHandler(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeHandler = handler
}

// SetErrorHandler implements Transport.SetErrorHandler
func (t *Transport) SetErrorHandler(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandler = handler
}

// SetMessageHandler implements Transport.SetMessageHandler
func (t *Transport) SetMessageHandler(handler func(ctx context.Context, message *transport.BaseJsonRpcMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}
