package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/connect6-live/api"
	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/hub"
	"github.com/wricardo/connect6-live/game/service"
	"github.com/wricardo/connect6-live/game/session"
)

// newGameServer starts the real REST API over a fresh session
func newGameServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := hub.NewHub(logger, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	svc := service.NewGameService(session.New(h, logger), h, logger)
	server := httptest.NewServer(api.NewServer(svc, nil, nil, logger))
	t.Cleanup(server.Close)
	return server
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, result.IsError
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/", "test", nil)

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.GetMCPServer())
}

func TestClient_ToolsList(t *testing.T) {
	client := NewClient("http://localhost:8080", "test", zaptest.NewLogger(t))

	msg := client.GetMCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"game_state", "choose_color", "make_move", "reset_game", "move_history", "game_instructions"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "x and y are required"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test", zaptest.NewLogger(t))
	err := client.apiCall(context.Background(), "POST", "/game/move", map[string]int{}, nil)
	require.Error(t, err)
	assert.Equal(t, "x and y are required", err.Error())

	bare := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bare.Close()

	client = NewClient(bare.URL, "test", zaptest.NewLogger(t))
	err = client.apiCall(context.Background(), "GET", "/game/state", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test", zaptest.NewLogger(t))

	text, isError := callTool(t, client.handleGameState, nil)
	assert.True(t, isError)
	assert.NotEmpty(t, text)
}

func TestClient_PlayThroughTools(t *testing.T) {
	server := newGameServer(t)
	client := NewClient(server.URL, "test", zaptest.NewLogger(t))

	text, isError := callTool(t, client.handleGameState, nil)
	require.False(t, isError)
	assert.Contains(t, text, "Status: not_started")
	assert.Contains(t, text, "Waiting for both colors")

	text, _ = callTool(t, client.handleChooseColor, map[string]interface{}{"player_id": "alice", "color": 1})
	assert.Contains(t, text, "✅ alice chooses color 1: accepted")
	text, _ = callTool(t, client.handleChooseColor, map[string]interface{}{"player_id": "bob", "color": 1})
	assert.Contains(t, text, "❌ bob chooses color 1: rejected")
	text, _ = callTool(t, client.handleChooseColor, map[string]interface{}{"player_id": "bob", "color": 2})
	assert.Contains(t, text, "Status: active")
	assert.Contains(t, text, "To move: player 1 (X)")

	text, _ = callTool(t, client.handleMakeMove, map[string]interface{}{"player_id": "bob", "x": 0, "y": 0})
	assert.Contains(t, text, "rejected")
	assert.Contains(t, text, "not your turn")

	text, _ = callTool(t, client.handleMakeMove, map[string]interface{}{"player_id": "alice", "x": 9, "y": 9})
	assert.Contains(t, text, "✅ alice plays (9,9): accepted")
	assert.Contains(t, text, "To move: player 2 (O)")

	text, _ = callTool(t, client.handleMakeMove, map[string]interface{}{"player_id": "bob", "x": 9, "y": 9})
	assert.Contains(t, text, "occupied")

	callTool(t, client.handleMakeMove, map[string]interface{}{"player_id": "bob", "x": 0, "y": 0})

	text, isError = callTool(t, client.handleMoveHistory, map[string]interface{}{"last": 1})
	require.False(t, isError)
	assert.Contains(t, text, "Move history (1 of 2 moves)")
	assert.Contains(t, text, "bob [O] (0,0)")

	text, _ = callTool(t, client.handleReset, nil)
	assert.Contains(t, text, "Game reset")
	assert.Contains(t, text, "Status: not_started")

	text, _ = callTool(t, client.handleMoveHistory, nil)
	assert.Equal(t, "No moves played yet.", text)
}

func TestClient_MissingArguments(t *testing.T) {
	client := NewClient("http://localhost:8080", "test", zaptest.NewLogger(t))

	_, isError := callTool(t, client.handleMakeMove, map[string]interface{}{"player_id": "alice", "x": 1})
	assert.True(t, isError)

	_, isError = callTool(t, client.handleChooseColor, map[string]interface{}{"color": 1})
	assert.True(t, isError)
}

func TestFormatGameState_Winner(t *testing.T) {
	msg := "Player 2 wins!"
	state := &engine.Snapshot{
		CurrentPlayer: engine.Player1,
		Message:       &msg,
		GameStarted:   true,
		Status:        engine.StatusEnded,
		Version:       42,
	}
	state.Board[0][0] = engine.Player2

	text := formatGameState(state)
	assert.Contains(t, text, "Status: ended (version 42)")
	assert.Contains(t, text, "🏆 Player 2 wins!")
	assert.NotContains(t, text, "To move")
	assert.Contains(t, text, " O")
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080", "test", nil)

	text, isError := callTool(t, client.handleGameInstructions, nil)
	require.False(t, isError)

	for _, content := range []string{
		"Connect6 - Complete Instructions",
		"GAME OBJECTIVE:",
		"Player 1 opens with a single stone",
		"19x19 grid",
		"REJECTED MOVES:",
	} {
		assert.Contains(t, text, content)
	}
}
