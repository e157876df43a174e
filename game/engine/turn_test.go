package engine

import "testing"

func TestTurnOpening(t *testing.T) {
	turn := NewTurn()

	if turn.Current() != Player1 || turn.Placed() != 0 || !turn.First() {
		t.Fatalf("Unexpected opening turn: %+v", turn)
	}
	if turn.Quota() != 1 {
		t.Errorf("Opening quota should be 1, got %d", turn.Quota())
	}

	if !turn.Advance() {
		t.Errorf("Expected handover after the opening stone")
	}
	if turn.Current() != Player2 || turn.Placed() != 0 || turn.First() {
		t.Errorf("Unexpected turn after opening: %+v", turn)
	}
}

func TestTurnSequence(t *testing.T) {
	turn := NewTurn()

	// Stones: P1, P2, P2, P1, P1, P2, P2
	expected := []Player{Player1, Player2, Player2, Player1, Player1, Player2, Player2}
	for i, want := range expected {
		if turn.Current() != want {
			t.Fatalf("Stone %d: expected %v to move, got %v", i+1, want, turn.Current())
		}
		turn.Advance()
	}
	if turn.Current() != Player1 {
		t.Errorf("Expected player 1 after seven stones, got %v", turn.Current())
	}
}

func TestTurnCounterNeverReachesQuota(t *testing.T) {
	turn := NewTurn()
	for i := 0; i < 50; i++ {
		turn.Advance()
		if turn.Placed() < 0 || turn.Placed() >= turn.Quota() {
			t.Fatalf("Counter out of range after %d stones: %+v", i+1, turn)
		}
		if turn.First() {
			t.Fatalf("First-turn flag should stay cleared")
		}
	}
}
