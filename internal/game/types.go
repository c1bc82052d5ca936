package game

import (
	"fmt"
	"strings"
)

// Tile is one matchable visual unit.
//
// Two tiles are the same kind iff their Key is equal; Face is only what adapters draw.
type Tile struct {
	Key  string `json:"key"`
	Face string `json:"face"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%s(%s)", t.Key, t.Face)
}

// Slot is a positional container on the board. A nil Tile means face-down.
type Slot struct {
	Index int   `json:"index"`
	Tile  *Tile `json:"tile,omitempty"`
}

// Revealed reports whether the slot currently shows a tile.
func (s Slot) Revealed() bool {
	return s.Tile != nil
}

// PickResult is the outcome of a slot activation.
type PickResult int

const (
	PickRejected   PickResult = iota // Activation ignored: no state changed.
	PickRevealed                     // Tile revealed, pick set not full yet.
	PickMatched                      // Pick set completed a group.
	PickMismatched                   // Pick set full but tiles differ.
)

func (r PickResult) String() string {
	switch r {
	case PickRejected:
		return "rejected"
	case PickRevealed:
		return "revealed"
	case PickMatched:
		return "matched"
	case PickMismatched:
		return "mismatched"
	default:
		return fmt.Sprintf("PickResult(%d)", int(r))
	}
}

// Board is a snapshot of all slots, in index order.
type Board []Slot

func (b Board) String() string {
	var sb strings.Builder
	for i, s := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if s.Tile == nil {
			sb.WriteString("[ ]")
		} else {
			fmt.Fprintf(&sb, "[%s]", s.Tile.Key)
		}
	}
	return sb.String()
}
