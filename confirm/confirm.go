// Package confirm provides the accept/deny checkpoint gating execution of
// sensitive tool calls. The gate is an interface so the host decides how
// decisions are collected: an interactive terminal prompt, a fixed policy,
// or decisions recorded out of band for a resumed dispatch.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
)

// Decision is the user's verdict on a pending invocation.
type Decision string

const (
	Confirm Decision = "CONFIRM"
	Deny    Decision = "DENY"
)

// Request describes the invocation awaiting a decision.
type Request struct {
	ActionGroup string
	Function    string
	Arguments   map[string]any
}

// Gate is an accept/deny checkpoint. Implementations may block (terminal
// prompt) or answer immediately (fixed policy, recorded decisions).
type Gate interface {
	Confirm(ctx context.Context, req Request) (Decision, error)
}

// Prompter is an interactive gate over a reader/writer pair, typically
// stdin/stdout. It loops until the user answers y/yes or n/no
// (case-insensitive); any other input re-prompts. There is no bound on the
// retry count. Reader exhaustion surfaces as an error.
type Prompter struct {
	R io.Reader
	W io.Writer
}

// Confirm implements Gate.
func (p *Prompter) Confirm(ctx context.Context, req Request) (Decision, error) {
	reader := bufio.NewReader(p.R)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fmt.Fprintf(p.W, "Agent wants to call %q with arguments %v. Allow? (y/n): ",
			req.Function, req.Arguments)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", errors.WithMessage(err, "failed to read confirmation input")
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return Confirm, nil
		case "n", "no":
			return Deny, nil
		}
	}
}

// Static is a gate that always returns the same decision. It is useful for
// tests and headless automation.
type Static Decision

// Confirm implements Gate.
func (s Static) Confirm(ctx context.Context, req Request) (Decision, error) {
	return Decision(s), nil
}

// Policy routes the functions on its required list through an inner gate
// and confirms every other function automatically. With no inner gate the
// listed functions are denied.
type Policy struct {
	required []string
	inner    Gate
}

// NewPolicy creates a policy gate over the given required-confirmation list.
func NewPolicy(required []string, inner Gate) *Policy {
	return &Policy{
		required: required,
		inner:    inner,
	}
}

// Confirm implements Gate.
func (p *Policy) Confirm(ctx context.Context, req Request) (Decision, error) {
	if !slices.Contains(p.required, req.Function) {
		return Confirm, nil
	}
	if p.inner == nil {
		return Deny, nil
	}
	return p.inner.Confirm(ctx, req)
}

// Decisions is a gate answering from decisions recorded per function name,
// used when a suspended dispatch is resumed with the user's answers.
type Decisions map[string]Decision

// Confirm implements Gate.
func (d Decisions) Confirm(ctx context.Context, req Request) (Decision, error) {
	decision, ok := d[req.Function]
	if !ok {
		return "", errors.Errorf("no decision recorded for function %q", req.Function)
	}
	return decision, nil
}
