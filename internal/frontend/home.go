package frontend

import (
	"strconv"

	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// Home is the landing page component: it picks the session settings.
type Home struct {
	app.Compo
	settings config.Config
	err      string
}

func (h *Home) OnMount(ctx app.Context) {
	klog.V(1).Infof("Home: OnMount called")
	h.settings = State.Settings
	State.Listeners["home"] = func() {
		ctx.Dispatch(func(ctx app.Context) {})
	}
}

func (h *Home) OnDismount() {
	delete(State.Listeners, "home")
}

func (h *Home) OnAppUpdate(ctx app.Context) {
	klog.Infof("Home component: App update available, reloading...")
	ctx.Reload()
}

func (h *Home) onTileSetChange(ctx app.Context, e app.Event) {
	h.settings.TileSet = ctx.JSSrc().Get("value").String()
}

func (h *Home) onStyleChange(ctx app.Context, e app.Event) {
	h.settings.Style = ctx.JSSrc().Get("value").String()
}

func (h *Home) onNumberChange(field *int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		if n, err := strconv.Atoi(ctx.JSSrc().Get("value").String()); err == nil {
			*field = n
		}
	}
}

func (h *Home) onDelayChange(ctx app.Context, e app.Event) {
	if d, err := config.ParseDelay(ctx.JSSrc().Get("value").String()); err == nil {
		h.settings.ResetDelay = d
	}
}

func (h *Home) onStart(ctx app.Context, e app.Event) {
	e.PreventDefault()
	if err := h.settings.Validate(); err != nil {
		h.err = err.Error()
		return
	}
	h.err = ""
	State.Settings = h.settings
	ctx.Navigate("/play?" + h.settings.Query().Encode())
}

func (h *Home) Render() app.UI {
	if h.settings.TileSet == "" {
		h.settings = State.Settings
	}

	var options []app.UI
	for _, name := range game.TileSetNames() {
		preview := ""
		for _, tile := range game.TileSets[name][:4] {
			preview += tile.Face
		}
		options = append(options, app.Option().
			Value(name).
			Selected(name == h.settings.TileSet).
			Text(name+" "+preview))
	}

	var errMsg app.UI
	if h.err != "" {
		errMsg = app.P().Style("color", "red").Text(h.err)
	}

	return app.Main().Class("container").Body(
		&TopBar{},
		app.Article().Body(
			app.Header().Body(
				app.H2().Text("New Memory Game"),
			),
			app.P().Text("Pick a tile set and how many identical tiles make a match."),
			app.Form().OnSubmit(h.onStart).Body(
				app.Label().For("tileSet").Text("Tile set"),
				app.Select().ID("tileSet").OnChange(h.onTileSetChange).Body(options...),

				app.Label().For("tiles").Text("Distinct tiles"),
				app.Input().Type("number").ID("tiles").Min(1).Max(12).
					Value(h.settings.Tiles).OnInput(h.onNumberChange(&h.settings.Tiles)),

				app.Label().For("group").Text("Tiles per match"),
				app.Input().Type("number").ID("group").Min(1).Max(config.MaxGroupSize).
					Value(h.settings.GroupSize).OnInput(h.onNumberChange(&h.settings.GroupSize)),

				app.Label().For("delay").Text("Mismatch close delay (ms, below 300 waits for your next click)"),
				app.Input().Type("number").ID("delay").Min(0).Step(100).
					Value(h.settings.ResetDelay.Milliseconds()).OnInput(h.onDelayChange),

				app.Label().For("style").Text("Board style"),
				app.Select().ID("style").OnChange(h.onStyleChange).Body(
					app.Option().Value("").Selected(h.settings.Style == "").Text("classic"),
					app.Option().Value("dark").Selected(h.settings.Style == "dark").Text("dark"),
					app.Option().Value("neon").Selected(h.settings.Style == "neon").Text("neon"),
				),

				errMsg,
				app.Button().Type("submit").Text("Start"),
			),
		),
	)
}
