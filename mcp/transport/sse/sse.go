// Package sse implements the MCP client transport over HTTP+SSE: the server
// streams messages as `message` server-sent events, and the client posts its
// messages to the endpoint announced by the initial `endpoint` event.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpbridge/mcp/transport", "sse")

// Transport implements the client side of the HTTP+SSE MCP transport.
// Reconnection on a dropped stream is not attempted; a dropped connection
// surfaces as an error from the next Send.
type Transport struct {
	baseURL   string
	headers   http.Header
	client    *http.Client
	sessionID string

	endpoint string

	messageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	mu             sync.RWMutex

	cancel      context.CancelFunc
	endpointSet chan struct{}
}

// New creates a new SSE client transport for the given server URL.
func New(baseURL string) *Transport {
	return &Transport{
		baseURL:     baseURL,
		headers:     make(http.Header),
		client:      http.DefaultClient,
		sessionID:   uuid.New().String(),
		endpointSet: make(chan struct{}),
	}
}

// WithHeader adds a header to all requests.
func (t *Transport) WithHeader(key, value string) *Transport {
	t.headers.Set(key, value)
	return t
}

// WithHTTPClient overrides the HTTP client used for the stream and for posts.
func (t *Transport) WithHTTPClient(client *http.Client) *Transport {
	t.client = client
	return t
}

// SessionID returns the client-generated session identifier.
func (t *Transport) SessionID() string {
	return t.sessionID
}

// Start implements Transport.Start: it opens the event stream and waits for
// the server to announce the message endpoint.
func (t *Transport) Start(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL, nil)
	if err != nil {
		return errors.WithMessage(err, "failed to create stream request")
	}
	req.Header = t.headers.Clone()
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.WithMessage(err, "failed to open event stream")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return errors.Errorf("unexpected status opening event stream: %d", resp.StatusCode)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.readStream(streamCtx, resp.Body)

	select {
	case <-t.endpointSet:
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Send implements Transport.Send: it posts the message to the announced
// endpoint.
func (t *Transport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	t.mu.RLock()
	endpoint := t.endpoint
	t.mu.RUnlock()
	if endpoint == "" {
		return errors.New("endpoint not received from server")
	}

	data, err := message.MarshalJSON()
	if err != nil {
		return errors.WithMessage(err, "failed to marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return errors.WithMessage(err, "failed to create request")
	}
	req.Header = t.headers.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.WithMessage(err, "failed to post message")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("server returned error: %d", resp.StatusCode)
	}
	return nil
}

// Close implements Transport.Close
func (t *Transport) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
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

// readStream parses the SSE wire format: `event:` and `data:` lines separated
// by blank lines.
func (t *Transport) readStream(ctx context.Context, body io.ReadCloser) {
	defer func() {
		_ = body.Close()
	}()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event, data string
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			t.dispatchEvent(ctx, event, data)
			event, data = "", ""
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		t.reportError(errors.WithMessage(err, "event stream read failed"))
	}
}

func (t *Transport) dispatchEvent(ctx context.Context, event, data string) {
	switch event {
	case "endpoint":
		endpoint, err := t.resolveEndpoint(data)
		if err != nil {
			t.reportError(err)
			return
		}
		t.mu.Lock()
		first := t.endpoint == ""
		t.endpoint = endpoint
		t.mu.Unlock()
		if first {
			close(t.endpointSet)
		}
		logger.KV(xlog.DEBUG, "endpoint", endpoint, "session", t.sessionID)

	case "message":
		message, err := transport.ParseMessage([]byte(data))
		if err != nil {
			t.reportError(errors.WithMessage(err, "failed to parse message"))
			return
		}
		t.mu.RLock()
		handler := t.messageHandler
		t.mu.RUnlock()
		if handler != nil {
			handler(ctx, message)
		}
	}
}

// resolveEndpoint resolves a possibly relative endpoint path against the
// stream URL.
func (t *Transport) resolveEndpoint(endpoint string) (string, error) {
	base, err := url.Parse(t.baseURL)
	if err != nil {
		return "", errors.WithMessage(err, "invalid base URL")
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.WithMessage(err, "invalid endpoint URL")
	}
	return base.ResolveReference(ref).String(), nil
}

func (t *Transport) reportError(err error) {
	t.mu.RLock()
	handler := t.errorHandler
	t.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}
