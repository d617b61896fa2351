package domain

import "strings"

// Cell is a board coordinate. (0,0) is the top-left corner.
type Cell struct {
	X int
	Y int
}

// Direction is a snake heading.
type Direction uint8

const (
	DirectionUp Direction = iota + 1
	DirectionDown
	DirectionLeft
	DirectionRight
)

// ParseDirection maps a wire token (UP, DOWN, LEFT, RIGHT) to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return DirectionUp, true
	case "DOWN":
		return DirectionDown, true
	case "LEFT":
		return DirectionLeft, true
	case "RIGHT":
		return DirectionRight, true
	default:
		return 0, false
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "UP"
	case DirectionDown:
		return "DOWN"
	case DirectionLeft:
		return "LEFT"
	case DirectionRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// Reverse returns the opposite heading.
func (d Direction) Reverse() Direction {
	switch d {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	default:
		return 0
	}
}

func (d Direction) valid() bool {
	return d >= DirectionUp && d <= DirectionRight
}

// Step returns the neighbouring cell in direction d, without bounds handling.
func (c Cell) Step(d Direction) Cell {
	switch d {
	case DirectionUp:
		c.Y--
	case DirectionDown:
		c.Y++
	case DirectionLeft:
		c.X--
	case DirectionRight:
		c.X++
	}
	return c
}

type board struct {
	width  int
	height int
}

func (b board) contains(c Cell) bool {
	return c.X >= 0 && c.X < b.width && c.Y >= 0 && c.Y < b.height
}

// wrap folds a cell that left the board by one step back in from the
// opposite edge.
func (b board) wrap(c Cell) Cell {
	if c.X < 0 {
		c.X = b.width - 1
	} else if c.X >= b.width {
		c.X = 0
	}
	if c.Y < 0 {
		c.Y = b.height - 1
	} else if c.Y >= b.height {
		c.Y = 0
	}
	return c
}

func (b board) cells() int {
	return b.width * b.height
}
