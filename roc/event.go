// Package roc implements the return-of-control protocol between an LLM
// orchestrator and the host application: it decodes the orchestrator's
// invocation requests, dispatches them to registered callables, and
// assembles the ordered result batch sent back to the orchestrator.
package roc

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// InvocationType selects the dispatch path for one invocation request.
type InvocationType string

const (
	// InvocationTypeResult executes the callable and returns its result.
	InvocationTypeResult InvocationType = "RESULT"
	// InvocationTypeUserConfirmation asks the user to confirm or deny,
	// without executing anything.
	InvocationTypeUserConfirmation InvocationType = "USER_CONFIRMATION"
	// InvocationTypeUserConfirmationAndResult asks the user first and
	// executes the callable only on confirmation.
	InvocationTypeUserConfirmationAndResult InvocationType = "USER_CONFIRMATION_AND_RESULT"
)

// ConfirmationState records the user's decision on a gated invocation.
type ConfirmationState string

const (
	ConfirmationConfirm ConfirmationState = "CONFIRM"
	ConfirmationDeny    ConfirmationState = "DENY"
)

// ResponseStateFailure marks an invocation entry whose callable failed.
const ResponseStateFailure = "FAILURE"

// DeniedResponseBody is the fixed body returned for a denied
// USER_CONFIRMATION_AND_RESULT invocation.
const DeniedResponseBody = "Access Denied to this function. Do not try again."

// Parameter is one declared-type parameter of an invocation request. Values
// arrive as strings and are coerced by DecodeParameters.
type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// FunctionInvocation is a function-style invocation request.
type FunctionInvocation struct {
	ActionGroup          string         `json:"actionGroup"`
	AgentID              string         `json:"agentId,omitempty"`
	Function             string         `json:"function"`
	ActionInvocationType InvocationType `json:"actionInvocationType"`
	Parameters           []Parameter    `json:"parameters,omitempty"`
}

// InvocationKind discriminates the invocation input union.
type InvocationKind int

const (
	KindFunction InvocationKind = iota
	KindAPI
)

// InvocationInput is the closed union of invocation request variants.
// Exactly one of Function or API is set.
type InvocationInput struct {
	Function *FunctionInvocation
	API      json.RawMessage
}

// Kind reports which variant is set.
func (i *InvocationInput) Kind() InvocationKind {
	if i.Function != nil {
		return KindFunction
	}
	return KindAPI
}

// UnmarshalJSON classifies the tagged union by its wrapper key. An input
// that is neither function- nor API-style is an error.
func (i *InvocationInput) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return errors.WithStack(err)
	}

	if raw, ok := probe["functionInvocationInput"]; ok {
		var fn FunctionInvocation
		if err := json.Unmarshal(raw, &fn); err != nil {
			return errors.WithMessage(err, "failed to unmarshal functionInvocationInput")
		}
		i.Function = &fn
		return nil
	}
	if raw, ok := probe["apiInvocationInput"]; ok {
		i.API = raw
		return nil
	}
	return errors.New("invocation input is neither function- nor API-style")
}

// MarshalJSON emits the wire form of whichever variant is set.
func (i InvocationInput) MarshalJSON() ([]byte, error) {
	if i.Function != nil {
		return json.Marshal(map[string]any{
			"functionInvocationInput": i.Function,
		})
	}
	return json.Marshal(map[string]json.RawMessage{
		"apiInvocationInput": i.API,
	})
}

// Event is one return-of-control event emitted by the orchestrator.
type Event struct {
	InvocationID     string            `json:"invocationId"`
	InvocationInputs []InvocationInput `json:"invocationInputs"`
}

// ParseEvent decodes a raw return-of-control event.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, errors.WithMessage(err, "failed to parse return-of-control event")
	}
	return &ev, nil
}

// CheckSessionState verifies that the session state passed in does not
// already carry dispatcher-produced output keys.
func CheckSessionState(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if gjson.GetBytes(raw, "returnControlInvocationResults").Exists() {
		return errors.New("session state must not contain returnControlInvocationResults")
	}
	if gjson.GetBytes(raw, "invocationId").Exists() {
		return errors.New("session state must not contain invocationId")
	}
	return nil
}

// TextBody is the text payload of an invocation result.
type TextBody struct {
	Body string `json:"body"`
}

// ResponseBody wraps the text payload under the orchestrator's TEXT key.
type ResponseBody struct {
	Text TextBody `json:"TEXT"`
}

// FunctionResult is the outcome of one invocation request.
type FunctionResult struct {
	ActionGroup       string            `json:"actionGroup"`
	AgentID           string            `json:"agentId,omitempty"`
	Function          string            `json:"function"`
	ResponseBody      *ResponseBody     `json:"responseBody,omitempty"`
	ConfirmationState ConfirmationState `json:"confirmationState,omitempty"`
	ResponseState     string            `json:"responseState,omitempty"`
}

// InvocationResult wraps a function result for the wire.
type InvocationResult struct {
	FunctionResult *FunctionResult `json:"functionResult"`
}

// ResultBatch is the ordered set of invocation results for one event; the
// order mirrors the event's invocationInputs exactly.
type ResultBatch struct {
	InvocationID string             `json:"invocationId"`
	Results      []InvocationResult `json:"returnControlInvocationResults"`
}

// PatchSessionState splices the batch into the given session-state JSON
// document and returns the patched document. An empty input patches into an
// empty object.
func (b *ResultBatch) PatchSessionState(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}
	if err := CheckSessionState(raw); err != nil {
		return nil, err
	}

	patched, err := sjson.SetBytes(raw, "invocationId", b.InvocationID)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to patch invocationId")
	}

	results, err := json.Marshal(b.Results)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to marshal results")
	}
	patched, err = sjson.SetRawBytes(patched, "returnControlInvocationResults", results)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to patch returnControlInvocationResults")
	}
	return patched, nil
}
