package confirm_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/effective-security/mcpbridge/confirm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Prompter(t *testing.T) {
	ctx := context.Background()
	req := confirm.Request{
		ActionGroup: "tools",
		Function:    "drop_table",
		Arguments:   map[string]any{"table": "users"},
	}

	tcases := []struct {
		name  string
		input string
		exp   confirm.Decision
	}{
		{name: "yes", input: "y\n", exp: confirm.Confirm},
		{name: "yes word", input: "YES\n", exp: confirm.Confirm},
		{name: "no", input: "n\n", exp: confirm.Deny},
		{name: "no word", input: "No\n", exp: confirm.Deny},
		{name: "reprompt until valid", input: "what\n\nmaybe\ny\n", exp: confirm.Confirm},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &confirm.Prompter{R: strings.NewReader(tc.input), W: &out}

			decision, err := p.Confirm(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, tc.exp, decision)
			assert.Contains(t, out.String(), `Agent wants to call "drop_table"`)
		})
	}
}

func Test_Prompter_EOF(t *testing.T) {
	var out bytes.Buffer
	p := &confirm.Prompter{R: strings.NewReader(""), W: &out}

	_, err := p.Confirm(context.Background(), confirm.Request{Function: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read confirmation input")
}

func Test_Prompter_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	p := &confirm.Prompter{R: strings.NewReader("y\n"), W: &out}

	_, err := p.Confirm(ctx, confirm.Request{Function: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Static(t *testing.T) {
	ctx := context.Background()

	decision, err := confirm.Static(confirm.Confirm).Confirm(ctx, confirm.Request{Function: "a"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Confirm, decision)

	decision, err = confirm.Static(confirm.Deny).Confirm(ctx, confirm.Request{Function: "a"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Deny, decision)
}

func Test_Decisions(t *testing.T) {
	ctx := context.Background()
	gate := confirm.Decisions{
		"reboot":   confirm.Confirm,
		"shutdown": confirm.Deny,
	}

	decision, err := gate.Confirm(ctx, confirm.Request{Function: "reboot"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Confirm, decision)

	decision, err = gate.Confirm(ctx, confirm.Request{Function: "shutdown"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Deny, decision)

	_, err = gate.Confirm(ctx, confirm.Request{Function: "unknown"})
	assert.EqualError(t, err, `no decision recorded for function "unknown"`)
}

func Test_Policy(t *testing.T) {
	ctx := context.Background()

	// unlisted functions pass without consulting the inner gate, listed
	// ones defer to it
	gate := confirm.NewPolicy([]string{"drop_table"}, confirm.Static(confirm.Deny))

	decision, err := gate.Confirm(ctx, confirm.Request{Function: "list_tables"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Confirm, decision)

	decision, err = gate.Confirm(ctx, confirm.Request{Function: "drop_table"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Deny, decision)
}

func Test_Policy_NoInnerGate(t *testing.T) {
	ctx := context.Background()
	gate := confirm.NewPolicy([]string{"drop_table"}, nil)

	decision, err := gate.Confirm(ctx, confirm.Request{Function: "list_tables"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Confirm, decision)

	decision, err = gate.Confirm(ctx, confirm.Request{Function: "drop_table"})
	require.NoError(t, err)
	assert.Equal(t, confirm.Deny, decision)
}
