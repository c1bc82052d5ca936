// Package config resolves memory game session settings from defaults, .env
// files, environment variables, URL queries and flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"
)

// Environment variables read by FromEnv.
const (
	EnvAddr       = "GOMEMORY_ADDR"
	EnvTileSet    = "GOMEMORY_TILESET"
	EnvTiles      = "GOMEMORY_TILES"
	EnvGroupSize  = "GOMEMORY_GROUP_SIZE"
	EnvResetDelay = "GOMEMORY_RESET_DELAY"
	EnvStyle      = "GOMEMORY_STYLE"
	EnvExtended   = "GOMEMORY_EXTENDED_EVENTS"
)

// DefaultTiles is the number of distinct templates dealt when nothing is configured.
const DefaultTiles = 6

// MaxGroupSize is the largest group size a session may ask for.
const MaxGroupSize = 8

// Config is one session setup.
type Config struct {
	Addr           string        // Server listen address, empty for an automatic port.
	TileSet        string        // Name of a built-in tile set.
	Tiles          int           // Distinct templates taken from the set.
	GroupSize      int           // Tiles per match.
	ResetDelay     time.Duration // Mismatch auto-close delay, below game.MinResetDelay is manual.
	Style          string        // Board style tag.
	ExtendedEvents bool          // Emit attempt/end notifications too.
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TileSet:    game.DefaultTileSet,
		Tiles:      DefaultTiles,
		GroupSize:  game.DefaultGroupSize,
		ResetDelay: 800 * time.Millisecond,
	}
}

// Load starts from Default, loads the given .env files (missing files are
// skipped, default ".env") and applies the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
		klog.V(1).Infof("config: loaded %s", f)
	}
	cfg := Default()
	if err := cfg.FromEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv overrides fields whose variable is set (looked up through getenv).
func (c *Config) FromEnv(getenv func(string) string) error {
	if v := getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := getenv(EnvTileSet); v != "" {
		c.TileSet = v
	}
	if v := getenv(EnvStyle); v != "" {
		c.Style = v
	}
	var err error
	if v := getenv(EnvTiles); v != "" {
		if c.Tiles, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%s: %w", EnvTiles, err)
		}
	}
	if v := getenv(EnvGroupSize); v != "" {
		if c.GroupSize, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("%s: %w", EnvGroupSize, err)
		}
	}
	if v := getenv(EnvResetDelay); v != "" {
		if c.ResetDelay, err = ParseDelay(v); err != nil {
			return fmt.Errorf("%s: %w", EnvResetDelay, err)
		}
	}
	if v := getenv(EnvExtended); v != "" {
		if c.ExtendedEvents, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%s: %w", EnvExtended, err)
		}
	}
	return nil
}

// FromQuery overrides fields from URL query parameters: set, tiles, group,
// delay, style, extended. Malformed values are ignored.
func (c *Config) FromQuery(q url.Values) {
	if v := q.Get("set"); v != "" {
		c.TileSet = v
	}
	if v := q.Get("style"); v != "" {
		c.Style = v
	}
	if n, err := strconv.Atoi(q.Get("tiles")); err == nil {
		c.Tiles = n
	}
	if n, err := strconv.Atoi(q.Get("group")); err == nil {
		c.GroupSize = n
	}
	if d, err := ParseDelay(q.Get("delay")); err == nil && q.Get("delay") != "" {
		c.ResetDelay = d
	}
	if b, err := strconv.ParseBool(q.Get("extended")); err == nil {
		c.ExtendedEvents = b
	}
}

// Query encodes the session fields as URL query parameters, the inverse of FromQuery.
func (c Config) Query() url.Values {
	q := url.Values{}
	q.Set("set", c.TileSet)
	q.Set("tiles", strconv.Itoa(c.Tiles))
	q.Set("group", strconv.Itoa(c.GroupSize))
	q.Set("delay", strconv.FormatInt(c.ResetDelay.Milliseconds(), 10))
	if c.Style != "" {
		q.Set("style", c.Style)
	}
	if c.ExtendedEvents {
		q.Set("extended", "true")
	}
	return q
}

// ParseDelay accepts a Go duration ("750ms", "1s") or a plain number of milliseconds.
func ParseDelay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate checks the settings can build a game.
func (c Config) Validate() error {
	if _, ok := game.TileSets[c.TileSet]; !ok {
		return fmt.Errorf("unknown tile set %q (available: %v)", c.TileSet, game.TileSetNames())
	}
	if c.Tiles < 1 {
		return fmt.Errorf("tiles must be at least 1, got %d", c.Tiles)
	}
	if c.GroupSize < 1 || c.GroupSize > MaxGroupSize {
		return fmt.Errorf("group size must be between 1 and %d, got %d", MaxGroupSize, c.GroupSize)
	}
	return nil
}

// Templates returns the tile templates for this session.
func (c Config) Templates() ([]game.Tile, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return game.LookupTileSet(c.TileSet, c.Tiles)
}

// Game returns the controller settings. Scheduler, Clock and Rand are left to the adapter.
func (c Config) Game() game.Config {
	if c.ResetDelay > 0 && c.ResetDelay < game.MinResetDelay {
		klog.V(1).Infof("config: reset delay %s below %s, mismatches close on next pick", c.ResetDelay, game.MinResetDelay)
	}
	return game.Config{
		ResetDelay:     c.ResetDelay,
		GroupSize:      c.GroupSize,
		StyleTag:       c.Style,
		ExtendedEvents: c.ExtendedEvents,
	}
}
