package domain

const (
	// MaxLevel is the highest level a round can reach.
	MaxLevel = 5
	// DefaultLevelThreshold is the total score per level needed to level up:
	// level n is left once the sum of scores reaches n × threshold.
	DefaultLevelThreshold = 50
)

// wrapsEdges reports whether leaving the board re-enters from the opposite
// edge. From level 2 on the edge is lethal.
func wrapsEdges(level int) bool {
	return level <= 1
}

// wallLayout returns the fixed wall cells of level on a width×height board.
// Layouts are cumulative: every level keeps the walls of the one before.
func wallLayout(level, width, height int) []Cell {
	var cells []Cell
	seen := make(map[Cell]struct{})
	add := func(c Cell) {
		if c.X < 0 || c.X >= width || c.Y < 0 || c.Y >= height {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		cells = append(cells, c)
	}

	if level >= 2 {
		// Two horizontal bars across the middle columns.
		top, bottom := height/5, height-1-height/5
		for x := width / 4; x < width-width/4; x++ {
			add(Cell{X: x, Y: top})
			add(Cell{X: x, Y: bottom})
		}
	}
	if level >= 3 {
		cx, cy := width/2, height/2
		for d := -3; d <= 3; d++ {
			add(Cell{X: cx + d, Y: cy})
			add(Cell{X: cx, Y: cy + d})
		}
	}
	if level >= 4 {
		for _, corner := range []Cell{
			{X: 3, Y: 3},
			{X: width - 5, Y: 3},
			{X: 3, Y: height - 5},
			{X: width - 5, Y: height - 5},
		} {
			for dx := 0; dx < 2; dx++ {
				for dy := 0; dy < 2; dy++ {
					add(Cell{X: corner.X + dx, Y: corner.Y + dy})
				}
			}
		}
	}
	if level >= 5 {
		left, right := width/5, width-1-width/5
		for y := height / 3; y < height-height/3; y++ {
			add(Cell{X: left, Y: y})
			add(Cell{X: right, Y: y})
		}
	}
	return cells
}
