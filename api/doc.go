// Package api provides HTTP REST API handlers for the Connect6 live game.
//
// The api package implements:
//   - Endpoints for choosing a color, moving and resetting
//   - State and move history queries
//   - Mounting of the live update transports (SSE and WebSocket)
//
// Endpoints:
//
// Participant Operations:
//   - POST /game/choose - {"playerId": "alice", "choice": 1}
//   - POST /game/move?playerId=alice - {"x": 9, "y": 9}
//   - POST /game/reset - Restore the initial state
//
// Game State:
//   - GET /game/state - Current snapshot
//   - GET /game/history - Stones played since the last reset, ?last=N for a tail
//
// Live Updates:
//   - GET /game/updates?playerId=alice - Server-sent events stream
//   - GET /ws?playerId=alice - WebSocket stream and commands
//   - GET /healthz - Liveness probe
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Choose and move always answer 200
// with a result describing whether the request was applied:
//
//	{
//	  "accepted": false,
//	  "reason": "player 1 to move: not your turn",
//	  "state": {"board": [[0, ...], ...], "currentPlayer": 1, "message": null,
//	            "gameStarted": true, "status": "active", "version": 4}
//	}
//
// Usage:
//
//	updates := sse.NewHandler(gameService, logger, sse.Options{})
//	ws := websocket.NewHandler(gameService, logger, websocket.Options{})
//	apiServer := api.NewServer(gameService, updates, ws.ServeWS, logger)
//	http.ListenAndServe(":8080", apiServer)
//
// Error Handling:
//
// Malformed bodies are answered with 400 and service failures with 500, both
// as JSON:
//
//	{
//	  "error": "error message"
//	}
package api
