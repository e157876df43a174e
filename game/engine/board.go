package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the board
	ErrOutOfBounds = errors.New("coordinates out of bounds")
	// ErrCellOccupied is returned when placing on a non-empty cell
	ErrCellOccupied = errors.New("cell is already occupied")
)

// Board is the 19x19 grid. Stones are only added through Place and only
// removed by Clear.
type Board struct {
	cells Grid
}

// NewBoard returns an empty board
func NewBoard() *Board {
	return &Board{}
}

// InBounds reports whether x,y addresses a cell on the board
func InBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Occupancy returns the color at x,y. Out of range reads return Empty with
// ErrOutOfBounds.
func (b *Board) Occupancy(x, y int) (Player, error) {
	if !InBounds(x, y) {
		return Empty, fmt.Errorf("read %s: %w", Position{X: x, Y: y}, ErrOutOfBounds)
	}
	return b.cells[x][y], nil
}

// Place puts a stone of color p on an empty in-range cell
func (b *Board) Place(x, y int, p Player) error {
	pos := Position{X: x, Y: y}
	if !InBounds(x, y) {
		return fmt.Errorf("place %s: %w", pos, ErrOutOfBounds)
	}
	if !p.Valid() {
		return fmt.Errorf("place %s: invalid color %d", pos, p)
	}
	if b.cells[x][y] != Empty {
		return fmt.Errorf("place %s: %w", pos, ErrCellOccupied)
	}
	b.cells[x][y] = p
	return nil
}

// Cells returns a copy of the grid
func (b *Board) Cells() Grid {
	return b.cells
}

// Stones counts the occupied cells
func (b *Board) Stones() int {
	n := 0
	for x := range b.cells {
		for y := range b.cells[x] {
			if b.cells[x][y] != Empty {
				n++
			}
		}
	}
	return n
}

// Clear empties every cell
func (b *Board) Clear() {
	b.cells = Grid{}
}

// Render draws the grid as text, one row per x with '.', 'X' and 'O'
func (g Grid) Render() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for y := 0; y < BoardSize; y++ {
		fmt.Fprintf(&sb, "%2d", y)
	}
	sb.WriteString("\n")
	for x := 0; x < BoardSize; x++ {
		fmt.Fprintf(&sb, "%2d ", x)
		for y := 0; y < BoardSize; y++ {
			switch g[x][y] {
			case Player1:
				sb.WriteString(" X")
			case Player2:
				sb.WriteString(" O")
			default:
				sb.WriteString(" .")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
