package stdio_test

import (
	"context"
	"testing"
	"time"

	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/mcpbridge/mcp/transport/stdio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cat echoes stdin to stdout line by line, so a sent request comes straight
// back as an incoming message.
func Test_Transport_EchoProcess(t *testing.T) {
	ctx := context.Background()
	tr := stdio.New("cat")

	received := make(chan *transport.BaseJsonRpcMessage, 1)
	tr.SetMessageHandler(func(ctx context.Context, message *transport.BaseJsonRpcMessage) {
		received <- message
	})

	require.NoError(t, tr.Start(ctx))
	t.Cleanup(func() {
		_ = tr.Close()
	})

	msg := transport.NewBaseMessageRequest(&transport.BaseJSONRPCRequest{
		Jsonrpc: "2.0",
		Id:      42,
		Method:  "tools/list",
	})
	require.NoError(t, tr.Send(ctx, msg))

	select {
	case got := <-received:
		assert.Equal(t, transport.BaseMessageTypeJSONRPCRequestType, got.Type)
		assert.Equal(t, "tools/list", got.JsonRpcRequest.Method)
		assert.Equal(t, transport.RequestId(42), got.JsonRpcRequest.Id)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not echoed back")
	}
}

func Test_Transport_NotStarted(t *testing.T) {
	tr := stdio.New("cat")
	err := tr.Send(context.Background(), transport.NewBaseMessageNotification(&transport.BaseJSONRPCNotification{
		Jsonrpc: "2.0",
		Method:  "notifications/initialized",
	}))
	assert.EqualError(t, err, "transport not started")
}

func Test_Transport_DoubleStart(t *testing.T) {
	ctx := context.Background()
	tr := stdio.New("cat")
	require.NoError(t, tr.Start(ctx))
	t.Cleanup(func() {
		_ = tr.Close()
	})

	err := tr.Start(ctx)
	assert.EqualError(t, err, "transport already started")
}

func Test_Transport_BadCommand(t *testing.T) {
	tr := stdio.New("/no/such/binary")
	err := tr.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start command")
}

func Test_Transport_Close(t *testing.T) {
	ctx := context.Background()
	tr := stdio.New("cat")

	closed := false
	tr.SetCloseHandler(func() {
		closed = true
	})

	require.NoError(t, tr.Start(ctx))
	require.NoError(t, tr.Close())
	assert.True(t, closed)
}

// the protocol layer closes the transport on its own shutdown path, so Close
// must tolerate being called again
func Test_Transport_CloseTwice(t *testing.T) {
	ctx := context.Background()
	tr := stdio.New("cat")
	require.NoError(t, tr.Start(ctx))

	require.NoError(t, tr.Close())
	assert.NotPanics(t, func() {
		require.NoError(t, tr.Close())
	})
}
