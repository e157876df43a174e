// Package engine provides the rules of Connect6 on a 19x19 board.
//
// The engine package implements the game mechanics including:
//   - Bounds-checked stone placement on the board
//   - Win detection for runs of six or more through the placed stone
//   - The one-then-two stone turn rule
//
// Core Types:
//
// Board owns the grid of cells and is the only mutation path for stones.
// Turn tracks the player to move, how many stones they placed this turn and
// whether the opening single-stone turn is still pending. Game composes both
// and applies the full placement rule. Snapshot is the immutable projection
// that callers hand to observers.
//
// Usage:
//
//	g := engine.NewGame()
//	placement, err := g.Play(9, 9)
//	if err != nil {
//		// engine.ErrOutOfBounds, engine.ErrCellOccupied or engine.ErrGameOver
//	}
//	if placement.Win {
//		fmt.Printf("Player %d wins!\n", placement.Player)
//	}
//
// Game Rules:
//
// Player 1 opens with a single stone. From then on each player places two
// stones per turn. The first player to complete an unbroken horizontal,
// vertical or diagonal line of six or more stones wins; overlines count.
//
// The engine carries no locking. Callers that share a Game across goroutines
// must serialize access, as the session package does.
package engine
