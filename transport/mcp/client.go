package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/engine"
	"github.com/wricardo/connect6-live/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL, version string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.Named("mcp"),
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Connect6 Live",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Connect6 Live - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Be the first to line up six or more stones in a row on the 19x19 board.

AVAILABLE TOOLS:
- game_state: Get the current board, turn and outcome
- choose_color: Claim color 1 or 2 for a player id
- make_move: Place a stone at x,y for a player id
- reset_game: Reset the board and release both colors
- move_history: View the stones played since the last reset
- game_instructions: Get the full rules and coordinate conventions`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state with the board drawn as text",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "choose_color",
		Description: "Claim a color for a player. Color 1 moves first. The game starts once both colors are claimed.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Your player id",
				},
				"color": map[string]interface{}{
					"type":        "integer",
					"enum":        []int{1, 2},
					"description": "Color to claim (1 or 2)",
				},
			},
			Required: []string{"player_id", "color"},
		},
	}, c.handleChooseColor)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "make_move",
		Description: "Place one stone. Player 1 opens with one stone, then each turn is two stones.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Your player id",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Row index (0-18)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Column index (0-18)",
				},
			},
			Required: []string{"player_id", "x", "y"},
		},
	}, c.handleMakeMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to its initial state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the stones played since the last reset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"last": map[string]interface{}{
					"type":        "integer",
					"description": "Only return the most recent N moves",
				},
			},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", "/game/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleChooseColor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := request.RequireString("player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	color, err := request.RequireInt("color")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"playerId": playerID,
		"choice":   color,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", "/game/choose", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(fmt.Sprintf("%s chooses color %d", playerID, color), &result)), nil
}

func (c *Client) handleMakeMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := request.RequireString("player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := request.RequireInt("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := request.RequireInt("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"x": x,
		"y": y,
	}

	var result service.MoveResult
	path := "/game/move?playerId=" + url.QueryEscape(playerID)
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(fmt.Sprintf("%s plays (%d,%d)", playerID, x, y), &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.Snapshot
	if err := c.apiCall(ctx, "POST", "/game/reset", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game reset. Both colors are free again.\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/game/history"
	if last := request.GetInt("last", 0); last > 0 {
		path = fmt.Sprintf("%s?last=%d", path, last)
	}

	var history historyResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Connect6 - Complete Instructions

GAME OBJECTIVE:
Line up six or more of your stones in an unbroken horizontal, vertical or
diagonal row. Longer rows also win.

SETUP:
• Two players each claim a color with choose_color (1 or 2)
• The game starts as soon as both colors are claimed
• A player may switch to the free color until the game starts

TURNS:
• Player 1 opens with a single stone
• After that every turn is exactly two stones
• The turn passes automatically once the stones are placed

BOARD:
• 19x19 grid, x is the row (0-18) and y is the column (0-18)
• X marks player 1 stones, O marks player 2 stones, . is empty
• Stones are never removed except by reset_game

REJECTED MOVES:
• Not your turn, an occupied cell or coordinates off the board
• Any move before both colors are claimed or after the game is won
A rejected move changes nothing; the reason is reported back.

STRATEGY TIPS:
• Two stones per turn make threats fast: block any row of four early
• Build in several directions at once so one block is not enough
• Use game_state after each opponent turn to see the new stones`

	return mcp.NewToolResultText(instructions), nil
}

// historyResponse mirrors GET /game/history
type historyResponse struct {
	Moves      []engine.MoveRecord `json:"moves"`
	TotalMoves int                 `json:"total_moves"`
}

// Formatting helpers

func formatGameState(state *engine.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Status: %s (version %d)\n", state.Status, state.Version))
	switch {
	case state.Message != nil:
		sb.WriteString(fmt.Sprintf("🏆 %s\n", *state.Message))
	case state.GameStarted:
		sb.WriteString(fmt.Sprintf("To move: player %d (%s)\n", state.CurrentPlayer, stoneChar(state.CurrentPlayer)))
	default:
		sb.WriteString("Waiting for both colors to be claimed\n")
	}
	sb.WriteString("\n")
	sb.WriteString(state.Board.Render())
	return sb.String()
}

func formatMoveResult(action string, result *service.MoveResult) string {
	var sb strings.Builder

	if result.Accepted {
		sb.WriteString(fmt.Sprintf("✅ %s: accepted\n", action))
	} else {
		sb.WriteString(fmt.Sprintf("❌ %s: rejected (%s)\n", action, result.Reason))
	}
	if result.State != nil {
		sb.WriteString("\n")
		sb.WriteString(formatGameState(result.State))
	}
	return sb.String()
}

func formatHistory(history *historyResponse) string {
	if len(history.Moves) == 0 {
		return "No moves played yet."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Move history (%d of %d moves):\n", len(history.Moves), history.TotalMoves))
	for _, m := range history.Moves {
		sb.WriteString(fmt.Sprintf("%3d. %s [%s] (%d,%d)\n", m.Number, m.ParticipantID, stoneChar(m.Player), m.X, m.Y))
	}
	return sb.String()
}

func stoneChar(p engine.Player) string {
	switch p {
	case engine.Player1:
		return "X"
	case engine.Player2:
		return "O"
	default:
		return "."
	}
}
