// Package session provides the live Connect6 session shared by two
// participants and any number of observers.
//
// The session package implements:
//   - Color assignment for exactly two participants
//   - The not-started, active and ended lifecycle
//   - Move validation against the turn order and the board
//   - Win messages, move history and full reset
//
// Core Types:
//
// Session owns every piece of mutable game state. Each operation returns the
// resulting engine.Snapshot together with an Outcome that says whether the
// request was applied and, when it was not, which sentinel error rejected it.
// Publisher receives every snapshot the session emits.
//
// Concurrency:
//
// A single sync.RWMutex guards the session. Mutating operations take the
// write lock for the whole validate-apply-publish sequence, so snapshots reach
// the Publisher in the same order the mutations happened. Publish must only
// enqueue; the hub package satisfies this by handing delivery to its own
// goroutine. QueryState takes the read lock and never publishes.
//
// Usage:
//
//	h := hub.NewHub(logger, 64)
//	go h.Run(ctx)
//
//	sess := session.New(h, logger)
//	sess.ChooseColor("alice", engine.Player1)
//	sess.ChooseColor("bob", engine.Player2)
//
//	snap, outcome := sess.MakeMove("alice", 9, 9)
//	if !outcome.Accepted {
//		log.Printf("rejected: %v", outcome.Reason)
//	}
//
// Snapshot versions increase by one for every snapshot handed to the
// Publisher and survive Reset, so observers can drop anything older than what
// they already hold.
package session
