package game

import (
	"fmt"
	"math/rand"
)

// Deck is the ordered collection of tiles for one session.
type Deck []Tile

// NewDeck replicates each template so it appears groupSize times.
//
// Originals come first, in template order, followed by the groupSize-1 clones
// of each template in turn. Templates without a Key get "t<position>".
func NewDeck(templates []Tile, groupSize int) Deck {
	deck := make(Deck, 0, len(templates)*groupSize)
	for i, t := range templates {
		if t.Key == "" {
			t.Key = fmt.Sprintf("t%d", i)
		}
		deck = append(deck, t)
	}
	for _, t := range deck[:len(templates)] {
		for range groupSize - 1 {
			deck = append(deck, t)
		}
	}
	return deck
}

// Shuffle permutes the deck in place: for each position i, swap with a
// uniformly chosen index in [i, n-1].
func (d Deck) Shuffle(rng *rand.Rand) {
	n := len(d)
	if n <= 1 {
		return
	}
	for i := range n {
		j := i + rng.Intn(n-i)
		d[i], d[j] = d[j], d[i]
	}
}

// Counts returns how many tiles of each Key the deck holds.
func (d Deck) Counts() map[string]int {
	counts := make(map[string]int)
	for _, t := range d {
		counts[t.Key]++
	}
	return counts
}
