package engine

import (
	"errors"
	"fmt"
)

// ErrGameOver is returned when a stone is played after a win
var ErrGameOver = errors.New("game is already over")

// Placement describes the effect of one accepted stone
type Placement struct {
	Player   Player
	X        int
	Y        int
	Win      bool
	Handover bool
}

// Game applies the Connect6 placement rule to a board and a turn
type Game struct {
	board  *Board
	turn   Turn
	winner Player
	moves  int
}

// NewGame creates a game with an empty board and player 1 to open
func NewGame() *Game {
	return &Game{
		board: NewBoard(),
		turn:  NewTurn(),
	}
}

// Play places a stone for the current player at x,y. The stone is checked for
// a win before the turn advances, so Placement.Player always names the mover.
// Crediting whoever is to move after the stone instead would name the opponent
// when the first stone of a two-stone turn completes the run.
func (g *Game) Play(x, y int) (Placement, error) {
	if g.winner != Empty {
		return Placement{}, ErrGameOver
	}
	mover := g.turn.Current()
	if err := g.board.Place(x, y, mover); err != nil {
		return Placement{}, fmt.Errorf("%s: %w", mover, err)
	}
	g.moves++

	p := Placement{Player: mover, X: x, Y: y}
	if IsWinningMove(g.board, x, y, mover) {
		p.Win = true
		g.winner = mover
	}
	p.Handover = g.turn.Advance()
	return p, nil
}

// CurrentPlayer returns the player to move
func (g *Game) CurrentPlayer() Player {
	return g.turn.Current()
}

// Turn returns a copy of the turn state
func (g *Game) Turn() Turn {
	return g.turn
}

// Winner returns the winning color or Empty
func (g *Game) Winner() Player {
	return g.winner
}

// IsGameOver reports whether a winning run has been played
func (g *Game) IsGameOver() bool {
	return g.winner != Empty
}

// Moves returns the number of stones played since the last reset
func (g *Game) Moves() int {
	return g.moves
}

// Cells returns a copy of the board grid
func (g *Game) Cells() Grid {
	return g.board.Cells()
}

// Occupancy returns the color at x,y
func (g *Game) Occupancy(x, y int) (Player, error) {
	return g.board.Occupancy(x, y)
}

// Reset clears the board and restores the opening turn
func (g *Game) Reset() {
	g.board.Clear()
	g.turn = NewTurn()
	g.winner = Empty
	g.moves = 0
}
