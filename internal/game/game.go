package game

import "time"

// Version of the game.
// Bumping this number will eventually make clients reload the WASM.
//
// If you set this to an empty string, a random version number will be
// used, and force the reload of the WASM on every restart (the reload
// still only happens after the first page is loaded, so there is a delay).
// This is useful during development.
var Version = "v1.0.1"

const (
	// Name of the engine, reported in the relay hello message and the CLI help.
	Name = "MemoryGameEngine"

	// Alias prefixes every notification name (e.g. "mge:created").
	Alias = "mge"

	// Description is a one line summary of the engine.
	Description = "An engine for memory game building."

	// DefaultGroupSize is the number of identical tiles that form a match in the classic game.
	DefaultGroupSize = 2

	// MinResetDelay is the shortest mismatch auto-close delay honored.
	// Anything below it means the mismatched picks stay open until the next activation.
	MinResetDelay = 300 * time.Millisecond
)

// NormalizeResetDelay maps delays below MinResetDelay to 0 ("manual close only").
func NormalizeResetDelay(d time.Duration) time.Duration {
	if d < MinResetDelay {
		return 0
	}
	return d
}
