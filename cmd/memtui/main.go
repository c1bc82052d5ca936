// memtui plays the memory game in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/janpfeifer/GoMemory/internal/terminal"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

type options struct {
	envFile  string
	tileSet  string
	tiles    int
	group    int
	delay    string
	style    string
	extended bool
	mute     bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:     "memtui",
		Short:   "Play " + game.Name + " in the terminal.",
		Long:    game.Description + "\n\nTurn tiles over with the keyboard and find every group of identical tiles.",
		Version: game.Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(cmd, opts)
			if err != nil {
				return err
			}
			return play(cmd.Context(), settings, opts.mute)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.envFile, "env", ".env", "Settings file loaded before the environment. Missing files are ignored.")
	f.StringVar(&opts.tileSet, "set", game.DefaultTileSet, "Tile set, one of: "+strings.Join(game.TileSetNames(), ", "))
	f.IntVar(&opts.tiles, "tiles", config.DefaultTiles, "Number of distinct tiles.")
	f.IntVar(&opts.group, "group", game.DefaultGroupSize, fmt.Sprintf("Identical tiles per group, 1 to %d.", config.MaxGroupSize))
	f.StringVar(&opts.delay, "delay", "800ms", fmt.Sprintf("Delay before a mismatch closes. Below %s mismatches close on the next pick.", game.MinResetDelay))
	f.StringVar(&opts.style, "style", "", "Board style: dark or neon.")
	f.BoolVar(&opts.extended, "extended", false, "Log attempt and end notifications too.")
	f.BoolVar(&opts.mute, "mute", false, "Disable sound.")

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	// Logging to stderr would draw over the board.
	_ = klogFlags.Set("logtostderr", "false")
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	return cmd
}

// resolveSettings layers the flags the user set over the .env file and environment.
func resolveSettings(cmd *cobra.Command, opts options) (config.Config, error) {
	settings, err := config.Load(opts.envFile)
	if err != nil {
		return settings, err
	}
	f := cmd.Flags()
	if f.Changed("set") {
		settings.TileSet = opts.tileSet
	}
	if f.Changed("tiles") {
		settings.Tiles = opts.tiles
	}
	if f.Changed("group") {
		settings.GroupSize = opts.group
	}
	if f.Changed("delay") {
		d, err := config.ParseDelay(opts.delay)
		if err != nil {
			return settings, fmt.Errorf("invalid --delay %q: %w", opts.delay, err)
		}
		settings.ResetDelay = d
	}
	if f.Changed("style") {
		settings.Style = opts.style
	}
	if f.Changed("extended") {
		settings.ExtendedEvents = opts.extended
	}
	return settings, settings.Validate()
}

func play(ctx context.Context, settings config.Config, mute bool) error {
	var sounds *terminal.Sounds
	if !mute {
		var err error
		sounds, err = terminal.NewSounds()
		if err != nil {
			klog.Warningf("memtui: sound disabled: %v", err)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	ui, err := terminal.New(screen, settings, terminal.Options{Sounds: sounds})
	if err != nil {
		return err
	}
	return ui.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer klog.Flush()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
