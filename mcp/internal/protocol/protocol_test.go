package protocol_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpbridge/mcp/internal/protocol"
	"github.com/effective-security/mcpbridge/mcp/transport"
	"github.com/effective-security/mcpbridge/mcp/transport/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectedPair links a client protocol to a server protocol over an
// in-process transport pair.
func connectedPair(t *testing.T) (*protocol.Protocol, *protocol.Protocol) {
	t.Helper()

	clientTr, serverTr := local.Pair()

	server := protocol.New()
	require.NoError(t, server.Connect(serverTr))

	client := protocol.New()
	require.NoError(t, client.Connect(clientTr))

	return client, server
}

func Test_Protocol_RequestResponse(t *testing.T) {
	ctx := context.Background()
	client, server := connectedPair(t)

	server.SetRequestHandler("echo", func(ctx context.Context, request *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		var params map[string]string
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, err
		}
		return map[string]string{"echo": params["say"]}, nil
	})

	result, err := client.Request(ctx, "echo", map[string]any{"say": "hello"}, nil)
	require.NoError(t, err)

	raw, ok := result.(json.RawMessage)
	require.True(t, ok)

	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "hello", body["echo"])
}

func Test_Protocol_RequestError(t *testing.T) {
	ctx := context.Background()
	client, server := connectedPair(t)

	server.SetRequestHandler("fail", func(ctx context.Context, request *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		return nil, errors.New("backend exploded")
	})

	_, err := client.Request(ctx, "fail", nil, nil)
	assert.EqualError(t, err, "RPC error -32000: backend exploded")
}

func Test_Protocol_MethodNotFound(t *testing.T) {
	ctx := context.Background()
	client, _ := connectedPair(t)

	_, err := client.Request(ctx, "no/such/method", nil, nil)
	assert.EqualError(t, err, "RPC error -32000: method not found: no/such/method")
}

func Test_Protocol_Timeout(t *testing.T) {
	ctx := context.Background()
	client, server := connectedPair(t)

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	server.SetRequestHandler("slow", func(ctx context.Context, request *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		<-block
		return nil, nil
	})

	_, err := client.Request(ctx, "slow", nil, &protocol.RequestOptions{
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request timeout")
}

func Test_Protocol_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client, server := connectedPair(t)

	started := make(chan struct{})
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	server.SetRequestHandler("slow", func(ctx context.Context, request *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		close(started)
		<-block
		return nil, nil
	})

	go func() {
		<-started
		cancel()
	}()

	_, err := client.Request(ctx, "slow", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Protocol_Notification(t *testing.T) {
	client, server := connectedPair(t)

	received := make(chan string, 1)
	server.SetNotificationHandler("custom/event", func(notification *transport.BaseJSONRPCNotification) error {
		received <- notification.Method
		return nil
	})

	require.NoError(t, client.Notification("custom/event", map[string]string{"k": "v"}))

	select {
	case method := <-received:
		assert.Equal(t, "custom/event", method)
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}
}

func Test_Protocol_Progress(t *testing.T) {
	ctx := context.Background()
	client, server := connectedPair(t)

	progress := make(chan protocol.Progress, 1)
	progressSeen := make(chan struct{})

	server.SetRequestHandler("long", func(ctx context.Context, request *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		var params struct {
			Meta struct {
				ProgressToken transport.RequestId `json:"progressToken"`
			} `json:"_meta"`
		}
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return nil, err
		}
		err := server.Notification("$/progress", map[string]any{
			"progress":      int64(50),
			"total":         int64(100),
			"progressToken": params.Meta.ProgressToken,
		})
		if err != nil {
			return nil, err
		}
		// hold the response until the client observed the progress update, so
		// the progress handler is still registered when it arrives
		<-progressSeen
		return map[string]string{"status": "done"}, nil
	})

	_, err := client.Request(ctx, "long", nil, &protocol.RequestOptions{
		OnProgress: func(p protocol.Progress) {
			progress <- p
			close(progressSeen)
		},
	})
	require.NoError(t, err)

	select {
	case p := <-progress:
		assert.Equal(t, int64(50), p.Progress)
		assert.Equal(t, int64(100), p.Total)
	case <-time.After(time.Second):
		t.Fatal("progress was not delivered")
	}
}

func Test_Protocol_NotConnected(t *testing.T) {
	p := protocol.New()
	_, err := p.Request(context.Background(), "ping", nil, nil)
	assert.EqualError(t, err, "not connected")

	err = p.Notification("ping", nil)
	assert.EqualError(t, err, "not connected")
}
