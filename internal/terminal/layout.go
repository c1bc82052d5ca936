package terminal

import (
	"math"

	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/mattn/go-runewidth"
)

// Layout places n slots on a near-square grid of fixed-width cells.
type Layout struct {
	N     int
	Cols  int
	FaceW int // Display width of the widest face.
}

const (
	boardTop  = 2 // First board row, below the header.
	boardLeft = 1
)

// NewLayout sizes the grid for the given deck.
func NewLayout(deck game.Deck) Layout {
	l := Layout{N: len(deck), Cols: 1, FaceW: 1}
	if l.N > 0 {
		l.Cols = int(math.Ceil(math.Sqrt(float64(l.N))))
	}
	for _, t := range deck {
		if w := runewidth.StringWidth(t.Face); w > l.FaceW {
			l.FaceW = w
		}
	}
	return l
}

// Rows is the number of grid rows.
func (l Layout) Rows() int {
	return (l.N + l.Cols - 1) / l.Cols
}

// CellW is the width of a cell: bracket, space, face, space, bracket.
func (l Layout) CellW() int {
	return l.FaceW + 4
}

// Origin is the screen position of the cell holding slot idx.
func (l Layout) Origin(idx int) (x, y int) {
	row, col := idx/l.Cols, idx%l.Cols
	return boardLeft + col*(l.CellW()+1), boardTop + row*2
}

// Bottom is the first screen row below the board.
func (l Layout) Bottom() int {
	return boardTop + l.Rows()*2
}

// Move returns the slot reached from idx by (dx, dy), staying put at the edges.
func (l Layout) Move(idx, dx, dy int) int {
	row, col := idx/l.Cols, idx%l.Cols
	col += dx
	row += dy
	if col < 0 || col >= l.Cols || row < 0 {
		return idx
	}
	next := row*l.Cols + col
	if next >= l.N {
		return idx
	}
	return next
}
