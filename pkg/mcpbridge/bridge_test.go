package mcpbridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opaline/shopassist/pkg/configstore"
	"github.com/opaline/shopassist/pkg/registry"
	"github.com/opaline/shopassist/pkg/toolkits/flags"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	store := configstore.NewMemoryStore(map[string]string{
		configstore.SystemPromptKey: "You are a helpful shop assistant.",
	})
	r := registry.New()
	flags.New(store).RegisterTools(r)
	return New("shopassist-test", "0.0.1", r, nil)
}

func connect(t *testing.T, b *Bridge) *mcp.ClientSession {
	t.Helper()
	srv := httptest.NewServer(b.HTTPHandler())
	t.Cleanup(srv.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), &mcp.StreamableClientTransport{Endpoint: srv.URL}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestListTools(t *testing.T) {
	session := connect(t, newTestBridge(t))

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "getSystemPrompt")
	assert.Contains(t, names, "getKVFlag")
	assert.Contains(t, names, "setKVFlag")
}

func TestCallTool(t *testing.T) {
	session := connect(t, newTestBridge(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "getSystemPrompt",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var out struct {
		Prompt string `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &out))
	assert.Equal(t, "You are a helpful shop assistant.", out.Prompt)
}

func TestCallTool_ValidationError(t *testing.T) {
	session := connect(t, newTestBridge(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "getKVFlag",
		Arguments: map[string]any{"key": ""},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, "key")
}

func TestCallTool_Mutation(t *testing.T) {
	b := newTestBridge(t)
	session := connect(t, b)
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "setKVFlag",
		Arguments: map[string]any{"key": "PROMO_BANNER", "value": "on"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "getKVFlag",
		Arguments: map[string]any{"key": "PROMO_BANNER"},
	})
	require.NoError(t, err)

	tc := result.Content[0].(*mcp.TextContent)
	assert.Contains(t, tc.Text, `"on"`)
}
