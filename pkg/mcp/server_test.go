package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
)

func TestNewServer(t *testing.T) {
	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())

	require.NotNil(t, s)
	assert.NotNil(t, s.mcp)
	assert.Same(t, s.mcp, s.MCP())
	assert.NotNil(t, s.NewStreamableHTTPServer())
}

func TestServer_RegisterTool(t *testing.T) {
	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())

	handlerCalled := false
	s.RegisterTool(mcp.NewTool("test-tool", mcp.WithDescription("A test tool")),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			handlerCalled = true
			return mcp.NewToolResultText("success"), nil
		})
	assert.False(t, handlerCalled, "handler should not be called during registration")

	resp := s.MCP().HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"test-tool"},"id":1}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.True(t, handlerCalled)
	assert.Contains(t, string(raw), "success")
}

// The actor resolved by the auth middleware must reach tool handlers through
// the HTTP transport.
func TestServer_HTTPContextPropagation(t *testing.T) {
	userID := uuid.New()
	var received *auth.Actor

	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())
	s.RegisterTool(mcp.NewTool("whoami"), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		received, _ = auth.GetActor(ctx)
		return mcp.NewToolResultText("ok"), nil
	})

	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"params":  map[string]any{"name": "whoami"},
		"id":      1,
	})
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithActor(req.Context(), &auth.Actor{UserID: userID, Role: "sales"}))

	rec := httptest.NewRecorder()
	s.NewStreamableHTTPServer().ServeHTTP(rec, req)

	require.NotNil(t, received, "expected tool handler to receive the actor from the HTTP context")
	assert.Equal(t, userID, received.UserID)
}
