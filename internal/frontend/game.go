package frontend

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Game renders one memory game session and feeds board clicks to the controller.
type Game struct {
	app.Compo
	Settings config.Config
	Error    string

	ctrl    *game.Controller
	over    *game.OverDetail
	lastHit game.PickResult
	elapsed time.Duration
	stopTic chan struct{}
}

func (g *Game) OnAppUpdate(ctx app.Context) {
	klog.Infof("Game component: App update available, not reloading not to interrupt the game...")
}

func (g *Game) OnMount(ctx app.Context) {
	klog.Infof("Game component: OnMount called")
	State.Listeners["game"] = func() {
		ctx.Dispatch(func(ctx app.Context) {
			g.Error = State.Error
		})
	}
}

func (g *Game) OnDismount() {
	klog.Infof("Game component: OnDismount called")
	delete(State.Listeners, "game")
	g.stopTicker()
	if g.ctrl != nil {
		g.ctrl.End()
		g.ctrl = nil
	}
	State.CloseRelay()
}

func (g *Game) OnNav(ctx app.Context) {
	klog.Infof("Game component: OnNav called")
	g.Settings = State.Settings
	g.Settings.FromQuery(ctx.Page().URL().Query())
	templates, err := g.Settings.Templates()
	if err != nil {
		g.Error = err.Error()
		klog.Errorf("Game component: Error: %s", g.Error)
		return
	}
	State.Settings = g.Settings

	if g.ctrl != nil {
		g.ctrl.End()
	}
	relay := State.Relay && !app.IsServer
	if relay {
		// Notifications of the new game queue up until the new session is open.
		State.CloseRelay()
	}
	cfg := g.Settings.Game()
	cfg.Scheduler = game.NewDispatchScheduler(func(fn func()) {
		ctx.Dispatch(func(ctx app.Context) { fn() })
	})
	g.ctrl, err = game.New(game.HostFunc(g.onNotify), templates, cfg)
	if err != nil {
		g.Error = err.Error()
		klog.Errorf("Game component: Error creating game: %v", err)
		return
	}

	if relay {
		ctx.Async(func() {
			if err := State.ConnectRelay(); err != nil {
				klog.Errorf("Game component: Relay unavailable: %v", err)
			}
		})
	}
	g.start(ctx)
}

func (g *Game) start(ctx app.Context) {
	g.over = nil
	g.elapsed = 0
	g.lastHit = game.PickRejected
	if err := g.ctrl.Start(); err != nil {
		g.Error = err.Error()
		return
	}
	g.startTicker(ctx)
}

// onNotify is the controller's host: it keeps the page in sync and relays.
func (g *Game) onNotify(e game.Event) {
	klog.V(1).Infof("Game component: %s", e.Name())
	switch e.Kind {
	case game.EventOver:
		g.over = e.Over
		g.stopTicker()
	}
	State.SendEvent(e)
}

func (g *Game) startTicker(ctx app.Context) {
	g.stopTicker()
	if app.IsServer {
		return
	}
	stop := make(chan struct{})
	g.stopTic = stop
	started := g.ctrl.StartedAt()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				ctx.Dispatch(func(ctx app.Context) {
					g.elapsed = now.Sub(started)
				})
			}
		}
	}()
}

func (g *Game) stopTicker() {
	if g.stopTic != nil {
		close(g.stopTic)
		g.stopTic = nil
	}
}

// onBoardClick is the single listener for the whole board: it resolves the
// clicked element to its slot and ignores anything that is not a direct
// child slot of this board.
func (g *Game) onBoardClick(ctx app.Context, e app.Event) {
	if g.ctrl == nil {
		return
	}
	slot := e.Get("target").Call("closest", "[data-slot]")
	if !slot.Truthy() || !slot.Get("parentElement").Equal(ctx.JSSrc()) {
		return
	}
	idx, ok := parseSlotIndex(slot.Get("dataset").Get("slot").String())
	if !ok {
		return
	}
	g.pick(idx)
}

func (g *Game) onBoardKeyDown(ctx app.Context, e app.Event) {
	key := e.Get("key").String()
	if key != "Enter" && key != " " {
		return
	}
	e.PreventDefault()
	active := app.Window().Get("document").Get("activeElement")
	if !active.Truthy() || !active.Get("parentElement").Equal(ctx.JSSrc()) {
		return
	}
	if idx, ok := parseSlotIndex(active.Get("dataset").Get("slot").String()); ok {
		g.pick(idx)
	}
}

func (g *Game) pick(idx int) {
	result := g.ctrl.PickSlot(idx)
	klog.V(1).Infof("Game component: slot %d -> %s", idx, result)
	if result != game.PickRejected {
		g.lastHit = result
	}
}

func (g *Game) onRestart(ctx app.Context, e app.Event) {
	e.PreventDefault()
	g.start(ctx)
}

func (g *Game) onSettings(ctx app.Context, e app.Event) {
	e.PreventDefault()
	ctx.Navigate("/")
}

// parseSlotIndex reads a slot's data-slot attribute.
func parseSlotIndex(s string) (int, bool) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// boardColumns picks a near-square grid for n slots.
func boardColumns(n int) int {
	if n <= 0 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// slotClass is the CSS class list of a slot.
func slotClass(s game.Slot, solved, picked bool) string {
	switch {
	case solved:
		return "slot revealed solved"
	case picked:
		return "slot revealed picked"
	case s.Revealed():
		return "slot revealed"
	default:
		return "slot"
	}
}

func (g *Game) statusLine() string {
	switch {
	case g.over != nil:
		return fmt.Sprintf("Solved in %d attempts, %s", g.over.Attempts, g.over.DisplayTime)
	case g.ctrl.RequestClose():
		return "No match. Click any tile to continue."
	case g.lastHit == game.PickMatched:
		return "Match!"
	case g.lastHit == game.PickMismatched:
		return "No match."
	}
	return fmt.Sprintf("Find groups of %d", g.ctrl.GroupSize())
}

func (g *Game) renderBoard() app.UI {
	slots := g.ctrl.Slots()
	picked := make(map[int]bool)
	for _, idx := range g.ctrl.Picks() {
		picked[idx] = true
	}

	cells := make([]app.UI, 0, len(slots))
	for _, s := range slots {
		face := ""
		if s.Tile != nil {
			face = s.Tile.Face
		}
		cells = append(cells, app.Div().
			Class(slotClass(s, g.ctrl.IsSolved(s.Index), picked[s.Index])).
			TabIndex(s.Index).
			DataSet("slot", s.Index).
			Text(face))
	}

	return app.Div().
		Class("board").
		Class(g.ctrl.StyleTag()).
		DataSet("board", "memory").
		Style("grid-template-columns", fmt.Sprintf("repeat(%d, 1fr)", boardColumns(len(slots)))).
		OnClick(g.onBoardClick).
		OnKeyDown(g.onBoardKeyDown).
		Body(cells...)
}

func (g *Game) Render() app.UI {
	if g.Error != "" {
		return app.Main().Class("container").Body(
			app.Article().Body(
				app.H2().Text("Game Error"),
				app.P().Style("color", "red").Text(g.Error),
				app.A().Href("#").OnClick(func(ctx app.Context, e app.Event) {
					State.Error = ""
					ctx.Navigate("/")
				}).Text("Return to Home"),
			),
		)
	}

	var content app.UI
	if g.ctrl == nil || g.ctrl.Phase() == game.PhaseEnded {
		content = app.Div().Aria("busy", "true").Text("Dealing tiles...")
	} else {
		content = app.Article().Body(
			app.Header().Body(
				app.Span().Class("status").Text(g.statusLine()),
				app.Span().Class("counters").Text(fmt.Sprintf(" · %d attempts · %s",
					g.ctrl.Attempts(), game.FormatElapsed(g.elapsed, false))),
			),
			g.renderBoard(),
			app.Footer().Body(
				app.Button().OnClick(g.onRestart).Text("Restart"),
				app.Button().Class("secondary").OnClick(g.onSettings).Text("Settings"),
			),
		)
	}

	return app.Main().Class("container").Body(
		&TopBar{},
		content,
	)
}
