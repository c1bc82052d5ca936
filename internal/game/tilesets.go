package game

import (
	"fmt"
	"sort"
)

// TileSets are the built-in template lists, by name.
var TileSets = map[string][]Tile{
	"animals": faces("🐶", "🐱", "🦊", "🐼", "🐸", "🐵", "🦁", "🐧", "🐙", "🦉", "🐢", "🦋"),
	"fruits":  faces("🍎", "🍌", "🍇", "🍓", "🍒", "🍍", "🥝", "🍑", "🍋", "🥥", "🍉", "🫐"),
	"symbols": faces("★", "♠", "♥", "♦", "♣", "☀", "☂", "☯", "♪", "⚑", "✿", "☘"),
	"letters": faces("A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"),
}

// DefaultTileSet is used when no set is configured.
const DefaultTileSet = "animals"

func faces(fs ...string) []Tile {
	tiles := make([]Tile, len(fs))
	for i, f := range fs {
		tiles[i] = Tile{Key: fmt.Sprintf("t%d", i), Face: f}
	}
	return tiles
}

// TileSetNames returns the names of the built-in sets, sorted.
func TileSetNames() []string {
	names := make([]string, 0, len(TileSets))
	for name := range TileSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupTileSet returns the first n templates of the named set.
// n <= 0 returns the whole set.
func LookupTileSet(name string, n int) ([]Tile, error) {
	set, ok := TileSets[name]
	if !ok {
		return nil, fmt.Errorf("unknown tile set %q (available: %v)", name, TileSetNames())
	}
	if n <= 0 || n > len(set) {
		n = len(set)
	}
	out := make([]Tile, n)
	copy(out, set[:n])
	return out, nil
}
