// Package mcp provides Model Context Protocol server implementation for the Connect6 live game.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for game operations
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - game_state: Get current game state with board visualization
//   - choose_color: Claim color 1 or 2 for a player id
//   - make_move: Place a stone for a player id
//   - reset_game: Reset game to initial state
//   - move_history: Retrieve the stones played since the last reset
//   - game_instructions: Get the rules and coordinate conventions
//
// Every tool is a thin proxy over the REST API, so an agent plays by exactly
// the same rules as any other participant and its moves reach all observers.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", version, logger)
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
