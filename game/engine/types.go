package engine

import "fmt"

// Player identifies a stone color. Empty marks a free cell.
type Player int

const (
	Empty   Player = 0
	Player1 Player = 1
	Player2 Player = 2

	// BoardSize is the side length of the square board
	BoardSize = 19
	// WinLength is the minimum run that wins the game
	WinLength = 6
)

// Valid reports whether p is one of the two playable colors
func (p Player) Valid() bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other playable color
func (p Player) Opponent() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "player 1"
	case Player2:
		return "player 2"
	default:
		return "empty"
	}
}

// Status is the lifecycle stage of a session
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusEnded      Status = "ended"
)

// Position represents x,y coordinates. X selects the row, Y the column.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Grid is a full copy of the board cells, indexed [x][y]
type Grid [BoardSize][BoardSize]Player

// Snapshot is an immutable projection of a session at one point in time
type Snapshot struct {
	Board         Grid    `json:"board"`
	CurrentPlayer Player  `json:"currentPlayer"`
	Message       *string `json:"message"`
	GameStarted   bool    `json:"gameStarted"`
	Status        Status  `json:"status"`
	Version       uint64  `json:"version"`
}

// MoveRecord is one accepted stone
type MoveRecord struct {
	Number        int    `json:"number"`
	ParticipantID string `json:"participantId"`
	Player        Player `json:"player"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Timestamp     int64  `json:"timestamp"`
}
