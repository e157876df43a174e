package engine

// Turn tracks whose move it is under the one-then-two stone rule
type Turn struct {
	current Player
	placed  int
	first   bool
}

// NewTurn returns the opening turn: player 1, nothing placed, first turn pending
func NewTurn() Turn {
	return Turn{current: Player1, first: true}
}

// Current returns the player to move
func (t Turn) Current() Player { return t.current }

// Placed returns the stones placed so far in this turn
func (t Turn) Placed() int { return t.placed }

// First reports whether the opening single-stone turn is still in progress
func (t Turn) First() bool { return t.first }

// Quota returns how many stones the current turn allows
func (t Turn) Quota() int {
	if t.first {
		return 1
	}
	return 2
}

// Advance records one placed stone and hands the turn over once the quota is
// reached. It reports whether a handover happened.
func (t *Turn) Advance() bool {
	t.placed++
	if t.placed < t.Quota() {
		return false
	}
	t.current = t.current.Opponent()
	t.placed = 0
	t.first = false
	return true
}
