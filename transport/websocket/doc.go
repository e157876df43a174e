// Package websocket provides WebSocket transport for the Connect6 live game.
//
// The websocket package implements:
//   - Real-time snapshot streaming to observers
//   - Participant commands over the same connection
//   - Connection lifecycle management
//
// Architecture:
//
// Each connection subscribes to the game hub through the game service and is
// served by two goroutines. The write pump sends the initial snapshot, every
// later snapshot, command replies and pings, each under a write deadline. The
// read pump decodes commands and ends the subscription when the peer leaves.
//
// Message Protocol:
//
// Messages are JSON-encoded with the following structure:
//   - Incoming: {"action": "move", "x": 9, "y": 9}
//     {"action": "choose", "choice": 1}, {"action": "reset"}, {"action": "state"}
//   - Outgoing: {"event": "state_update", "state": {...}} after each change
//     and {"event": "result", "result": {...}} in reply to a command
//
// The participant is named with the playerId query parameter
// (/ws?playerId=alice). Connections without one are read-only observers.
//
// Usage:
//
//	handler := websocket.NewHandler(gameService, logger, websocket.Options{})
//	router.HandleFunc("/ws", handler.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects, optionally with a participant id
// 2. Subscription registered with the hub
// 3. Initial state sent to client
// 4. Client sends commands, receives state updates
// 5. Disconnection, a slow reader or an expired timeout ends the subscription
package websocket
