package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPlayerValid(t *testing.T) {
	tests := []struct {
		player Player
		valid  bool
	}{
		{Empty, false},
		{Player1, true},
		{Player2, true},
		{Player(3), false},
		{Player(-1), false},
	}

	for _, test := range tests {
		if got := test.player.Valid(); got != test.valid {
			t.Errorf("Player(%d).Valid() = %v, want %v", test.player, got, test.valid)
		}
	}
}

func TestPlayerOpponent(t *testing.T) {
	if Player1.Opponent() != Player2 {
		t.Errorf("Expected player 2 to oppose player 1")
	}
	if Player2.Opponent() != Player1 {
		t.Errorf("Expected player 1 to oppose player 2")
	}
}

func TestConstants(t *testing.T) {
	tests := []struct {
		name     string
		actual   int
		expected int
	}{
		{"BoardSize", BoardSize, 19},
		{"WinLength", WinLength, 6},
	}

	for _, test := range tests {
		if test.actual != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, test.actual)
		}
	}
}

func TestSnapshotJSON(t *testing.T) {
	var snap Snapshot
	snap.Board[2][5] = Player1
	snap.CurrentPlayer = Player2
	snap.Status = StatusActive
	snap.GameStarted = true
	snap.Version = 7

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal snapshot: %v", err)
	}
	for _, key := range []string{"board", "currentPlayer", "message", "gameStarted", "status", "version"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected key %q in snapshot JSON", key)
		}
	}
	if string(raw["message"]) != "null" {
		t.Errorf("Expected null message, got %s", raw["message"])
	}
	if string(raw["status"]) != `"active"` {
		t.Errorf("Expected active status, got %s", raw["status"])
	}

	var board [][]int
	if err := json.Unmarshal(raw["board"], &board); err != nil {
		t.Fatalf("Failed to decode board: %v", err)
	}
	if len(board) != BoardSize || len(board[0]) != BoardSize {
		t.Fatalf("Expected %dx%d board, got %dx%d", BoardSize, BoardSize, len(board), len(board[0]))
	}
	if board[2][5] != 1 {
		t.Errorf("Expected row 2 column 5 to hold player 1, got %d", board[2][5])
	}
}

func TestGridRender(t *testing.T) {
	var g Grid
	g[0][0] = Player1
	g[0][1] = Player2

	out := g.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != BoardSize+1 {
		t.Fatalf("Expected %d lines, got %d", BoardSize+1, len(lines))
	}
	if !strings.HasPrefix(lines[1], " 0  X O .") {
		t.Errorf("Unexpected first row: %q", lines[1])
	}
}
