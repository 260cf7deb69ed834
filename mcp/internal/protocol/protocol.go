// Package protocol implements JSON-RPC framing on top of a pluggable
// transport: request/response correlation, notification routing, progress
// updates and request cancellation. All public methods are safe for
// concurrent use.
package protocol

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpbridge/mcp/internal", "protocol")

// DefaultRequestTimeout applies when a request does not specify its own.
const DefaultRequestTimeout = 60 * time.Second

// Progress represents a progress update received for a long-running request.
type Progress struct {
	Progress int64 `json:"progress"`
	Total    int64 `json:"total"`
}

// ProgressCallback is invoked for progress notifications.
type ProgressCallback func(progress Progress)

// RequestOptions contains per-request options.
type RequestOptions struct {
	// OnProgress is called when progress notifications are received from the
	// remote end.
	OnProgress ProgressCallback
	// Context can be used to cancel an in-flight request.
	Context context.Context
	// Timeout specifies a timeout for this request; DefaultRequestTimeout is
	// used when zero.
	Timeout time.Duration
}

// RequestHandlerExtra contains extra data given to request handlers.
type RequestHandlerExtra struct {
	// Context used to communicate if the request was cancelled from the
	// sender's side.
	Context context.Context
}

// RequestHandler handles an incoming request for a registered method.
type RequestHandler func(ctx context.Context, request *transport.BaseJSONRPCRequest, extra RequestHandlerExtra) (transport.JsonRpcBody, error)

// NotificationHandler handles an incoming notification for a registered method.
type NotificationHandler func(notification *transport.BaseJSONRPCNotification) error

// Protocol implements MCP message framing over a transport, including
// request/response linking, notifications and progress.
type Protocol struct {
	transport transport.Transport

	requestMessageID transport.RequestId
	mu               sync.RWMutex

	requestHandlers      map[string]RequestHandler
	requestCancellers    map[transport.RequestId]context.CancelFunc
	notificationHandlers map[string]NotificationHandler
	responseHandlers     map[transport.RequestId]chan *responseEnvelope
	progressHandlers     map[transport.RequestId]ProgressCallback

	// OnClose is called when the connection is closed for any reason.
	OnClose func()
	// OnError is called when an error occurs out of band.
	OnError func(error)
	// FallbackRequestHandler is invoked for request methods with no handler
	// installed.
	FallbackRequestHandler func(ctx context.Context, request *transport.BaseJSONRPCRequest) (transport.JsonRpcBody, error)
	// FallbackNotificationHandler is invoked for notification methods with no
	// handler installed.
	FallbackNotificationHandler func(notification *transport.BaseJSONRPCNotification) error
}

type responseEnvelope struct {
	response any
	err      error
}

// New creates a new Protocol instance.
func New() *Protocol {
	p := &Protocol{
		requestHandlers:      make(map[string]RequestHandler),
		requestCancellers:    make(map[transport.RequestId]context.CancelFunc),
		notificationHandlers: make(map[string]NotificationHandler),
		responseHandlers:     make(map[transport.RequestId]chan *responseEnvelope),
		progressHandlers:     make(map[transport.RequestId]ProgressCallback),
	}

	p.SetNotificationHandler("notifications/cancelled", p.handleCancelledNotification)
	p.SetNotificationHandler("notifications/initialized", p.handleInitializedNotification)
	p.SetNotificationHandler("$/progress", p.handleProgressNotification)

	return p
}

// Connect attaches to the given transport, starts it, and starts listening
// for messages.
func (p *Protocol) Connect(tr transport.Transport) error {
	p.transport = tr

	tr.SetCloseHandler(p.handleClose)
	tr.SetErrorHandler(p.handleError)
	tr.SetMessageHandler(func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
		switch message.Type {
		case transport.BaseMessageTypeJSONRPCRequestType:
			p.handleRequest(ctx, message.JsonRpcRequest)
		case transport.BaseMessageTypeJSONRPCNotificationType:
			p.handleNotification(message.JsonRpcNotification)
		case transport.BaseMessageTypeJSONRPCResponseType:
			p.handleResponse(message.JsonRpcResponse, nil)
		case transport.BaseMessageTypeJSONRPCErrorType:
			p.handleResponse(nil, message.JsonRpcError)
		}
	})

	return tr.Start(context.Background())
}

// Close closes the connection.
func (p *Protocol) Close() error {
	if p.transport != nil {
		return p.transport.Close()
	}
	return nil
}

func (p *Protocol) handleClose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, cancel := range p.requestCancellers {
		cancel()
	}

	for id, ch := range p.responseHandlers {
		ch <- &responseEnvelope{err: errors.New("connection closed")}
		close(ch)
		delete(p.responseHandlers, id)
	}

	if p.OnClose != nil {
		p.OnClose()
	}

	p.requestHandlers = make(map[string]RequestHandler)
	p.notificationHandlers = make(map[string]NotificationHandler)
	p.responseHandlers = make(map[transport.RequestId]chan *responseEnvelope)
	p.progressHandlers = make(map[transport.RequestId]ProgressCallback)
}

func (p *Protocol) handleError(err error) {
	if p.OnError != nil {
		p.OnError(err)
	}
}

func (p *Protocol) handleNotification(notification *transport.BaseJSONRPCNotification) {
	logger.KV(xlog.DEBUG, "method", notification.Method)

	p.mu.RLock()
	handler := p.notificationHandlers[notification.Method]
	if handler == nil {
		handler = p.FallbackNotificationHandler
	}
	p.mu.RUnlock()

	if handler == nil {
		return
	}

	go func() {
		if err := handler(notification); err != nil {
			p.handleError(errors.WithMessage(err, "notification handler error"))
		}
	}()
}

func (p *Protocol) handleRequest(ctx context.Context, request *transport.BaseJSONRPCRequest) {
	logger.KV(xlog.DEBUG, "method", request.Method, "id", request.Id)

	p.mu.RLock()
	handler := p.requestHandlers[request.Method]
	if handler == nil {
		handler = func(ctx context.Context, req *transport.BaseJSONRPCRequest, _ RequestHandlerExtra) (transport.JsonRpcBody, error) {
			if p.FallbackRequestHandler != nil {
				return p.FallbackRequestHandler(ctx, req)
			}
			return nil, errors.Errorf("method not found: %s", req.Method)
		}
	}
	p.mu.RUnlock()

	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.requestCancellers[request.Id] = cancel
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.requestCancellers, request.Id)
			p.mu.Unlock()
			cancel()
		}()

		result, err := handler(ctx, request, RequestHandlerExtra{Context: ctx})
		if err != nil {
			logger.KV(xlog.DEBUG, "method", request.Method, "id", request.Id, "err", err.Error())
			_ = p.sendErrorResponse(request.Id, err)
			return
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			_ = p.sendErrorResponse(request.Id, errors.WithMessage(err, "failed to marshal result"))
			return
		}

		response := &transport.BaseJSONRPCResponse{
			Jsonrpc: "2.0",
			Id:      request.Id,
			Result:  jsonResult,
		}
		if err := p.transport.Send(ctx, transport.NewBaseMessageResponse(response)); err != nil {
			p.handleError(errors.WithMessage(err, "failed to send response"))
		}
	}()
}

func (p *Protocol) handleProgressNotification(notification *transport.BaseJSONRPCNotification) error {
	var params struct {
		Progress      int64               `json:"progress"`
		Total         int64               `json:"total"`
		ProgressToken transport.RequestId `json:"progressToken"`
	}
	if err := json.Unmarshal(notification.Params, &params); err != nil {
		return errors.WithMessage(err, "failed to unmarshal progress params")
	}

	p.mu.RLock()
	handler := p.progressHandlers[params.ProgressToken]
	p.mu.RUnlock()

	if handler != nil {
		handler(Progress{Progress: params.Progress, Total: params.Total})
	}
	return nil
}

func (p *Protocol) handleInitializedNotification(notification *transport.BaseJSONRPCNotification) error {
	logger.KV(xlog.DEBUG, "method", notification.Method)
	return nil
}

func (p *Protocol) handleCancelledNotification(notification *transport.BaseJSONRPCNotification) error {
	var params struct {
		RequestId transport.RequestId `json:"requestId"`
		Reason    string              `json:"reason"`
	}
	if err := json.Unmarshal(notification.Params, &params); err != nil {
		return errors.WithMessage(err, "failed to unmarshal cancelled params")
	}

	p.mu.RLock()
	cancel := p.requestCancellers[params.RequestId]
	p.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (p *Protocol) handleResponse(response *transport.BaseJSONRPCResponse, errResp *transport.BaseJSONRPCError) {
	var id transport.RequestId
	var result any
	var err error

	if errResp != nil {
		id = errResp.Id
		err = errors.Errorf("RPC error %d: %s", errResp.Error.Code, errResp.Error.Message)
	} else {
		id = response.Id
		result = response.Result
	}

	p.mu.RLock()
	ch := p.responseHandlers[id]
	p.mu.RUnlock()

	if ch != nil {
		ch <- &responseEnvelope{response: result, err: err}
	}
}

// Request sends a request and waits for a response.
func (p *Protocol) Request(ctx context.Context, method string, params any, opts *RequestOptions) (any, error) {
	if p.transport == nil {
		return nil, errors.New("not connected")
	}

	if opts == nil {
		opts = &RequestOptions{}
	}
	if opts.Context == nil {
		opts.Context = ctx
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultRequestTimeout
	}

	p.mu.Lock()
	id := p.requestMessageID
	p.requestMessageID++
	ch := make(chan *responseEnvelope, 1)
	p.responseHandlers[id] = ch
	if opts.OnProgress != nil {
		p.progressHandlers[id] = opts.OnProgress
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.responseHandlers, id)
		delete(p.progressHandlers, id)
		p.mu.Unlock()
	}()

	requestParams := params
	if opts.OnProgress != nil {
		meta := map[string]any{
			"progressToken": id,
		}
		if params == nil {
			requestParams = map[string]any{"_meta": meta}
		} else if paramsMap, ok := params.(map[string]any); ok {
			paramsMap["_meta"] = meta
			requestParams = paramsMap
		} else {
			return nil, errors.New("params must be nil or map[string]any when using progress")
		}
	}

	marshalledParams, err := json.Marshal(requestParams)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to marshal params")
	}

	request := &transport.BaseJSONRPCRequest{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  marshalledParams,
		Id:      id,
	}
	if err := p.transport.Send(ctx, transport.NewBaseMessageRequest(request)); err != nil {
		return nil, errors.WithMessage(err, "failed to send request")
	}

	select {
	case envelope := <-ch:
		if envelope.err != nil {
			return nil, envelope.err
		}
		return envelope.response, nil
	case <-opts.Context.Done():
		_ = p.sendCancelNotification(id, opts.Context.Err().Error())
		return nil, opts.Context.Err()
	case <-time.After(opts.Timeout):
		_ = p.sendCancelNotification(id, "request timeout")
		return nil, errors.Errorf("request timeout after %v", opts.Timeout)
	}
}

// Notification emits a one-way message that does not expect a response.
func (p *Protocol) Notification(method string, params any) error {
	if p.transport == nil {
		return errors.New("not connected")
	}

	marshalled, err := json.Marshal(params)
	if err != nil {
		return errors.WithMessage(err, "failed to marshal notification params")
	}

	notification := &transport.BaseJSONRPCNotification{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  marshalled,
	}
	return p.transport.Send(context.Background(), transport.NewBaseMessageNotification(notification))
}

func (p *Protocol) sendCancelNotification(requestID transport.RequestId, reason string) error {
	params := map[string]any{
		"requestId": requestID,
		"reason":    reason,
	}
	marshalled, err := json.Marshal(params)
	if err != nil {
		return errors.WithMessage(err, "failed to marshal cancel params")
	}
	notification := &transport.BaseJSONRPCNotification{
		Jsonrpc: "2.0",
		Method:  "notifications/cancelled",
		Params:  marshalled,
	}
	if err := p.transport.Send(context.Background(), transport.NewBaseMessageNotification(notification)); err != nil {
		p.handleError(errors.WithMessage(err, "failed to send cancel notification"))
	}
	return nil
}

func (p *Protocol) sendErrorResponse(requestID transport.RequestId, err error) error {
	response := &transport.BaseJSONRPCError{
		Jsonrpc: "2.0",
		Id:      requestID,
		Error: transport.BaseJSONRPCErrorInner{
			// Internal error
			Code:    -32000,
			Message: err.Error(),
		},
	}
	if err := p.transport.Send(context.Background(), transport.NewBaseMessageError(response)); err != nil {
		p.handleError(errors.WithMessage(err, "failed to send error response"))
	}
	return nil
}

// SetRequestHandler registers a handler for the given request method.
func (p *Protocol) SetRequestHandler(method string, handler RequestHandler) {
	p.mu.Lock()
	p.requestHandlers[method] = handler
	p.mu.Unlock()
}

// SetNotificationHandler registers a handler for the given notification
// method.
func (p *Protocol) SetNotificationHandler(method string, handler NotificationHandler) {
	p.mu.Lock()
	p.notificationHandlers[method] = handler
	p.mu.Unlock()
}
