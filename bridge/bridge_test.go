package bridge_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/effective-security/mcpbridge/bridge"
	"github.com/effective-security/mcpbridge/confirm"
	"github.com/effective-security/mcpbridge/mcp"
	"github.com/effective-security/mcpbridge/mocks/mockbridge"
	"github.com/effective-security/mcpbridge/pending"
	"github.com/effective-security/mcpbridge/roc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/mock/gomock"
)

func strPtr(s string) *string { return &s }

func discoveredTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "get_weather",
			Description: strPtr("current weather"),
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]*mcp.SchemaProperty{
					"city": {Type: "string"},
				},
				Required: []string{"city"},
			},
		},
		{Name: "list_files"},
	}
}

func Test_Bridge_New(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	src := mockbridge.NewMockCapabilitySource(ctrl)
	src.EXPECT().ListAllTools(gomock.Any()).Return(discoveredTools(), nil)

	b, err := bridge.New(ctx, src, bridge.WithActionGroup("tools"))
	require.NoError(t, err)
	assert.Equal(t, "tools", b.ActionGroup())

	defs := b.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "get_weather", defs[0].Name)
	assert.Equal(t, "current weather", defs[0].Description)
	assert.Equal(t, "list_files", defs[1].Name)

	assert.Equal(t, 2, b.Registry().Len())
}

func Test_Bridge_New_Filter(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	src := mockbridge.NewMockCapabilitySource(ctrl)
	src.EXPECT().ListAllTools(gomock.Any()).Return(discoveredTools(), nil)

	b, err := bridge.New(ctx, src, bridge.WithToolFilter("list_files"))
	require.NoError(t, err)

	defs := b.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "list_files", defs[0].Name)
}

func Test_Bridge_Process(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	src := mockbridge.NewMockCapabilitySource(ctrl)
	src.EXPECT().ListAllTools(gomock.Any()).Return(discoveredTools(), nil)
	src.EXPECT().CallTool(gomock.Any(), "get_weather", map[string]any{"city": "Seattle"}).
		Return(&mcp.ToolResponse{
			Content: []mcp.Content{
				{Type: mcp.ContentTypeText, Text: "sunny, 21C"},
			},
		}, nil)

	b, err := bridge.New(ctx, src)
	require.NoError(t, err)

	event := []byte(`{
		"invocationId": "inv-1",
		"invocationInputs": [
			{
				"functionInvocationInput": {
					"actionGroup": "tools",
					"function": "get_weather",
					"actionInvocationType": "RESULT",
					"parameters": [
						{"name": "city", "type": "string", "value": "Seattle"}
					]
				}
			}
		]
	}`)

	patched, err := b.Process(ctx, []byte(`{"sessionAttributes":{"k":"v"}}`), event)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", gjson.GetBytes(patched, "invocationId").String())
	assert.Equal(t, "v", gjson.GetBytes(patched, "sessionAttributes.k").String())
	assert.Equal(t, "sunny, 21C",
		gjson.GetBytes(patched, "returnControlInvocationResults.0.functionResult.responseBody.TEXT.body").String())
}

type echoArgs struct {
	Message string `json:"message"`
}

func Test_Bridge_RegisterLocalTool(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	src := mockbridge.NewMockCapabilitySource(ctrl)
	src.EXPECT().ListAllTools(gomock.Any()).Return(discoveredTools(), nil)

	b, err := bridge.New(ctx, src)
	require.NoError(t, err)

	err = b.RegisterLocalTool("echo", "repeats the message", reflect.TypeOf(echoArgs{}),
		func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("echo: %v", args["message"]), nil
		})
	require.NoError(t, err)

	defs := b.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "echo", defs[2].Name)

	event := []byte(`{
		"invocationId": "inv-2",
		"invocationInputs": [
			{
				"functionInvocationInput": {
					"actionGroup": "tools",
					"function": "echo",
					"actionInvocationType": "RESULT",
					"parameters": [
						{"name": "message", "type": "string", "value": "hi"}
					]
				}
			}
		]
	}`)

	patched, err := b.Process(ctx, nil, event)
	require.NoError(t, err)
	assert.Equal(t, "echo: hi",
		gjson.GetBytes(patched, "returnControlInvocationResults.0.functionResult.responseBody.TEXT.body").String())

	// a duplicate of a discovered tool is rejected
	err = b.RegisterLocalTool("get_weather", "", reflect.TypeOf(echoArgs{}),
		func(ctx context.Context, args map[string]any) (string, error) { return "", nil })
	assert.EqualError(t, err, `tool "get_weather" is already registered`)
}

func Test_Bridge_SuspendResume(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	src := mockbridge.NewMockCapabilitySource(ctrl)
	src.EXPECT().ListAllTools(gomock.Any()).Return(discoveredTools(), nil)
	src.EXPECT().CallTool(gomock.Any(), "list_files", gomock.Any()).
		Return(&mcp.ToolResponse{
			Content: []mcp.Content{
				{Type: mcp.ContentTypeText, Text: "a.txt b.txt"},
			},
		}, nil)

	store := pending.NewMemoryStore()
	b, err := bridge.New(ctx, src, bridge.WithPendingStore(store))
	require.NoError(t, err)

	sessionState := []byte(`{"sessionAttributes":{"k":"v"}}`)
	event := []byte(`{
		"invocationId": "inv-3",
		"invocationInputs": [
			{
				"functionInvocationInput": {
					"actionGroup": "tools",
					"function": "list_files",
					"actionInvocationType": "USER_CONFIRMATION_AND_RESULT"
				}
			}
		]
	}`)

	_, err = b.Process(ctx, sessionState, event)
	assert.ErrorIs(t, err, roc.ErrConfirmationPending)

	patched, err := b.Resume(ctx, sessionState, "inv-3", confirm.Decisions{"list_files": confirm.Confirm})
	require.NoError(t, err)
	assert.Equal(t, "a.txt b.txt",
		gjson.GetBytes(patched, "returnControlInvocationResults.0.functionResult.responseBody.TEXT.body").String())
	assert.Equal(t, "CONFIRM",
		gjson.GetBytes(patched, "returnControlInvocationResults.0.functionResult.confirmationState").String())
}

func Test_Bridge_RejectsWideTool(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	props := make(map[string]*mcp.SchemaProperty)
	for i := 1; i <= 6; i++ {
		props[fmt.Sprintf("p%d", i)] = &mcp.SchemaProperty{Type: "string"}
	}
	src := mockbridge.NewMockCapabilitySource(ctrl)
	src.EXPECT().ListAllTools(gomock.Any()).Return([]mcp.Tool{
		{Name: "wide", InputSchema: mcp.ToolInputSchema{Type: "object", Properties: props}},
	}, nil)

	_, err := bridge.New(ctx, src)
	assert.EqualError(t, err, `tool "wide" has 6 parameters, the catalog allows at most 5`)
}
