package engine

// axes are the four line directions; each is also walked in reverse
var axes = [4]Position{
	{X: 0, Y: 1},  // horizontal
	{X: 1, Y: 0},  // vertical
	{X: 1, Y: 1},  // diagonal
	{X: 1, Y: -1}, // anti-diagonal
}

// IsWinningMove reports whether the stone of color p at x,y completes a run
// of WinLength or more. Each axis counts at most WinLength-1 stones in each
// sense, which is enough to detect any winning run through x,y.
func IsWinningMove(b *Board, x, y int, p Player) bool {
	if !InBounds(x, y) || !p.Valid() {
		return false
	}
	for _, d := range axes {
		count := 1 + b.run(x, y, d.X, d.Y, p) + b.run(x, y, -d.X, -d.Y, p)
		if count >= WinLength {
			return true
		}
	}
	return false
}

// run counts consecutive stones of color p starting one step away from x,y
func (b *Board) run(x, y, dx, dy int, p Player) int {
	n := 0
	for step := 1; step < WinLength; step++ {
		nx, ny := x+step*dx, y+step*dy
		if !InBounds(nx, ny) || b.cells[nx][ny] != p {
			break
		}
		n++
	}
	return n
}
