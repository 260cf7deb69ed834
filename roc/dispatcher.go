package roc

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/catalog"
	"github.com/effective-security/mcpbridge/confirm"
	"github.com/effective-security/mcpbridge/pending"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpbridge", "roc")

// ErrConfirmationPending is returned by Process when the event requires user
// confirmation, no gate is configured, and the event has been recorded in
// the pending store for a later Resume.
var ErrConfirmationPending = errors.New("confirmation pending")

// Dispatcher consumes return-of-control events: it decodes each invocation
// request, invokes the target callable or defers to the confirmation gate,
// and assembles the ordered result batch. Invocations within an event are
// handled sequentially.
type Dispatcher struct {
	registry *catalog.Registry
	gate     confirm.Gate
	pending  pending.Store
}

// Option modifies the Dispatcher.
type Option func(*Dispatcher)

// WithGate sets the confirmation gate used for USER_CONFIRMATION-style
// invocations. Without a gate, such invocations suspend into the pending
// store.
func WithGate(g confirm.Gate) Option {
	return func(d *Dispatcher) {
		d.gate = g
	}
}

// WithPendingStore sets the store recording suspended events.
func WithPendingStore(s pending.Store) Option {
	return func(d *Dispatcher) {
		d.pending = s
	}
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *catalog.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process handles one return-of-control event and returns the result batch,
// in input order. It fails without producing a partial batch when the
// session state already carries output keys, when any input is API-style,
// when a RESULT-path request names an unregistered function, or when a
// parameter fails to decode. A callable failure is isolated to its own
// entry; sibling invocations still execute.
func (d *Dispatcher) Process(ctx context.Context, sessionState []byte, event *Event) (*ResultBatch, error) {
	if err := CheckSessionState(sessionState); err != nil {
		return nil, err
	}

	needsGate := false
	for idx, input := range event.InvocationInputs {
		if input.Kind() == KindAPI {
			return nil, errors.Errorf("invocationInputs[%d]: API invocations are not supported, only function invocations", idx)
		}
		switch input.Function.ActionInvocationType {
		case InvocationTypeUserConfirmation, InvocationTypeUserConfirmationAndResult:
			needsGate = true
		}
	}

	if needsGate && d.gate == nil {
		return nil, d.suspend(ctx, sessionState, event)
	}
	return d.process(ctx, event, d.gate)
}

// Resume completes a previously suspended event using decisions recorded per
// function name. The pending entry is consumed; resuming the same
// invocation twice fails.
func (d *Dispatcher) Resume(ctx context.Context, invocationID string, decisions confirm.Decisions) (*ResultBatch, error) {
	if d.pending == nil {
		return nil, errors.New("no pending store configured")
	}

	p, err := d.pending.Take(ctx, invocationID)
	if err != nil {
		return nil, err
	}

	event, err := ParseEvent(p.Event)
	if err != nil {
		return nil, err
	}
	return d.process(ctx, event, decisions)
}

func (d *Dispatcher) suspend(ctx context.Context, sessionState []byte, event *Event) error {
	if d.pending == nil {
		return errors.New("no confirmation gate configured")
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return errors.WithMessage(err, "failed to marshal event")
	}
	err = d.pending.Put(ctx, &pending.Pending{
		InvocationID: event.InvocationID,
		Event:        raw,
		SessionState: sessionState,
	})
	if err != nil {
		return err
	}

	logger.ContextKV(ctx, xlog.DEBUG, "invocation_id", event.InvocationID, "status", "suspended")
	return errors.WithMessagef(ErrConfirmationPending, "invocation %s", event.InvocationID)
}

func (d *Dispatcher) process(ctx context.Context, event *Event, gate confirm.Gate) (*ResultBatch, error) {
	batch := &ResultBatch{
		InvocationID: event.InvocationID,
	}

	for _, input := range event.InvocationInputs {
		res, err := d.dispatch(ctx, input.Function, gate)
		if err != nil {
			return nil, err
		}
		batch.Results = append(batch.Results, InvocationResult{FunctionResult: res})
	}
	return batch, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, fn *FunctionInvocation, gate confirm.Gate) (*FunctionResult, error) {
	args, err := DecodeParameters(fn.Parameters)
	if err != nil {
		return nil, errors.WithMessagef(err, "function %q", fn.Function)
	}

	res := &FunctionResult{
		ActionGroup: fn.ActionGroup,
		AgentID:     fn.AgentID,
		Function:    fn.Function,
	}

	switch fn.ActionInvocationType {
	case InvocationTypeResult:
		inv, ok := d.registry.Get(fn.Function)
		if !ok {
			return nil, errors.Errorf("function %q is not registered", fn.Function)
		}
		d.invoke(ctx, inv, fn.Function, args, res)

	case InvocationTypeUserConfirmation:
		decision, err := gate.Confirm(ctx, confirm.Request{
			ActionGroup: fn.ActionGroup,
			Function:    fn.Function,
			Arguments:   args,
		})
		if err != nil {
			return nil, err
		}
		res.ConfirmationState = ConfirmationState(decision)

	case InvocationTypeUserConfirmationAndResult:
		inv, ok := d.registry.Get(fn.Function)
		if !ok {
			return nil, errors.Errorf("function %q is not registered", fn.Function)
		}
		decision, err := gate.Confirm(ctx, confirm.Request{
			ActionGroup: fn.ActionGroup,
			Function:    fn.Function,
			Arguments:   args,
		})
		if err != nil {
			return nil, err
		}
		if decision == confirm.Confirm {
			d.invoke(ctx, inv, fn.Function, args, res)
			res.ConfirmationState = ConfirmationConfirm
		} else {
			res.ResponseBody = &ResponseBody{Text: TextBody{Body: DeniedResponseBody}}
			res.ConfirmationState = ConfirmationDeny
		}

	default:
		return nil, errors.Errorf("unsupported actionInvocationType %q", fn.ActionInvocationType)
	}

	return res, nil
}

// invoke runs the callable and records the outcome on the result entry. A
// callable failure is converted to a FAILURE entry, not propagated, so
// sibling invocations in the batch still execute.
func (d *Dispatcher) invoke(ctx context.Context, inv catalog.Invocable, name string, args map[string]any, res *FunctionResult) {
	text, err := inv.Invoke(ctx, args)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"function", name,
			"err", slices.StringUpto(err.Error(), 256),
		)
		res.ResponseBody = &ResponseBody{Text: TextBody{Body: err.Error()}}
		res.ResponseState = ResponseStateFailure
		return
	}
	res.ResponseBody = &ResponseBody{Text: TextBody{Body: text}}
}
