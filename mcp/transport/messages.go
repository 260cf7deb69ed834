package transport

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// RequestId is a unique identifier correlating a JSON-RPC request with its
// response.
type RequestId int64

// BaseMessageType discriminates the JSON-RPC message union.
type BaseMessageType string

const (
	BaseMessageTypeJSONRPCRequestType      BaseMessageType = "request"
	BaseMessageTypeJSONRPCNotificationType BaseMessageType = "notification"
	BaseMessageTypeJSONRPCResponseType     BaseMessageType = "response"
	BaseMessageTypeJSONRPCErrorType        BaseMessageType = "error"
)

// BaseJSONRPCRequest is a JSON-RPC request that expects a response.
type BaseJSONRPCRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Id      RequestId       `json:"id"`
}

type baseJSONRPCRequestAlias BaseJSONRPCRequest

// UnmarshalJSON rejects payloads that do not carry both an id and a method,
// so that classification of the incoming message union is unambiguous.
func (m *BaseJSONRPCRequest) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.WithStack(err)
	}
	if _, ok := probe["id"]; !ok {
		return errors.New("request must have an id")
	}
	if _, ok := probe["method"]; !ok {
		return errors.New("request must have a method")
	}
	var alias baseJSONRPCRequestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.WithStack(err)
	}
	*m = BaseJSONRPCRequest(alias)
	return nil
}

// BaseJSONRPCNotification is a one-way JSON-RPC message with no response.
type BaseJSONRPCNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type baseJSONRPCNotificationAlias BaseJSONRPCNotification

func (m *BaseJSONRPCNotification) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.WithStack(err)
	}
	if _, ok := probe["id"]; ok {
		return errors.New("notification must not have an id")
	}
	if _, ok := probe["method"]; !ok {
		return errors.New("notification must have a method")
	}
	var alias baseJSONRPCNotificationAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.WithStack(err)
	}
	*m = BaseJSONRPCNotification(alias)
	return nil
}

// BaseJSONRPCResponse is a successful JSON-RPC response.
type BaseJSONRPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Id      RequestId       `json:"id"`
}

type baseJSONRPCResponseAlias BaseJSONRPCResponse

func (m *BaseJSONRPCResponse) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.WithStack(err)
	}
	if _, ok := probe["id"]; !ok {
		return errors.New("response must have an id")
	}
	if _, ok := probe["result"]; !ok {
		return errors.New("response must have a result")
	}
	var alias baseJSONRPCResponseAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.WithStack(err)
	}
	*m = BaseJSONRPCResponse(alias)
	return nil
}

// BaseJSONRPCErrorInner carries the error code and message of a failed call.
type BaseJSONRPCErrorInner struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// BaseJSONRPCError is an error response to a JSON-RPC request.
type BaseJSONRPCError struct {
	Jsonrpc string                `json:"jsonrpc"`
	Id      RequestId             `json:"id"`
	Error   BaseJSONRPCErrorInner `json:"error"`
}

type baseJSONRPCErrorAlias BaseJSONRPCError

func (m *BaseJSONRPCError) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.WithStack(err)
	}
	if _, ok := probe["id"]; !ok {
		return errors.New("error response must have an id")
	}
	if _, ok := probe["error"]; !ok {
		return errors.New("error response must have an error")
	}
	var alias baseJSONRPCErrorAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.WithStack(err)
	}
	*m = BaseJSONRPCError(alias)
	return nil
}

// BaseJsonRpcMessage is the union of the four JSON-RPC message kinds.
// Exactly one of the pointer fields is set, indicated by Type.
type BaseJsonRpcMessage struct {
	Type                BaseMessageType
	JsonRpcRequest      *BaseJSONRPCRequest
	JsonRpcNotification *BaseJSONRPCNotification
	JsonRpcResponse     *BaseJSONRPCResponse
	JsonRpcError        *BaseJSONRPCError
}

func NewBaseMessageRequest(request *BaseJSONRPCRequest) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:           BaseMessageTypeJSONRPCRequestType,
		JsonRpcRequest: request,
	}
}

func NewBaseMessageNotification(notification *BaseJSONRPCNotification) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:                BaseMessageTypeJSONRPCNotificationType,
		JsonRpcNotification: notification,
	}
}

func NewBaseMessageResponse(response *BaseJSONRPCResponse) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:            BaseMessageTypeJSONRPCResponseType,
		JsonRpcResponse: response,
	}
}

func NewBaseMessageError(errResp *BaseJSONRPCError) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{
		Type:         BaseMessageTypeJSONRPCErrorType,
		JsonRpcError: errResp,
	}
}

// MarshalJSON emits the wire form of whichever variant is set.
func (m *BaseJsonRpcMessage) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		return json.Marshal(m.JsonRpcRequest)
	case BaseMessageTypeJSONRPCNotificationType:
		return json.Marshal(m.JsonRpcNotification)
	case BaseMessageTypeJSONRPCResponseType:
		return json.Marshal(m.JsonRpcResponse)
	case BaseMessageTypeJSONRPCErrorType:
		return json.Marshal(m.JsonRpcError)
	}
	return nil, errors.Errorf("unknown message type: %q", m.Type)
}

// MessageID returns the correlation id of the message, or 0 for notifications.
func (m *BaseJsonRpcMessage) MessageID() RequestId {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		return m.JsonRpcRequest.Id
	case BaseMessageTypeJSONRPCResponseType:
		return m.JsonRpcResponse.Id
	case BaseMessageTypeJSONRPCErrorType:
		return m.JsonRpcError.Id
	}
	return 0
}

// ParseMessage classifies a raw JSON-RPC payload into the message union.
func ParseMessage(body []byte) (*BaseJsonRpcMessage, error) {
	var request BaseJSONRPCRequest
	if err := json.Unmarshal(body, &request); err == nil {
		return NewBaseMessageRequest(&request), nil
	}

	var notification BaseJSONRPCNotification
	if err := json.Unmarshal(body, &notification); err == nil {
		return NewBaseMessageNotification(&notification), nil
	}

	var response BaseJSONRPCResponse
	if err := json.Unmarshal(body, &response); err == nil {
		return NewBaseMessageResponse(&response), nil
	}

	var errorResponse BaseJSONRPCError
	if err := json.Unmarshal(body, &errorResponse); err == nil {
		return NewBaseMessageError(&errorResponse), nil
	}

	return nil, errors.New("failed to parse JSON-RPC message")
}
