// Package service provides the business logic layer for the Connect6 live game.
//
// The service package implements:
//   - Context-aware access to the session operations
//   - Tracing of every mutating operation
//   - Observer streams that start from a consistent snapshot
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// GameSession is the state machine it drives, satisfied by *session.Session.
// Broadcaster hands out live subscriptions, satisfied by *hub.Hub.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP, SSE, WebSocket,
// MCP, Redis) and the session. Transports never touch the session or the hub
// directly, so they all observe the same ordering and rejection rules.
//
// Usage:
//
//	h := hub.NewHub(logger, 64)
//	go h.Run(ctx)
//	sess := session.New(h, logger)
//	gameService := service.NewGameService(sess, h, logger)
//
//	res, err := gameService.MakeMove(ctx, "alice", 9, 9)
//	if err != nil {
//		return err
//	}
//	if !res.Accepted {
//		log.Printf("move rejected: %s", res.Reason)
//	}
//
// Streams:
//
// Subscribe returns a Stream whose Initial field is the state at subscription
// time. Snapshots on Updates may overlap with it; pass each one through
// Stream.Fresh and skip it when Fresh returns false.
package service
