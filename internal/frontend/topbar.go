package frontend

import (
	"fmt"

	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

type TopBar struct {
	app.Compo
}

func (t *TopBar) onToggleRelay(ctx app.Context, e app.Event) {
	e.PreventDefault()
	State.ToggleRelay()
}

func (t *TopBar) onBannerClick(ctx app.Context, e app.Event) {
	ctx.Navigate("/")
}

func (t *TopBar) Render() app.UI {
	relayIcon := "📡"
	relayTitle := "Relay off"
	if State.Relay {
		relayTitle = "Relay on"
		if State.SessionID != "" {
			relayTitle = "Relay session " + State.SessionID
		}
	} else {
		relayIcon = "🔕"
	}

	actions := []app.UI{
		app.Li().Body(
			app.A().
				Href("#").
				Title(relayTitle).
				OnClick(t.onToggleRelay).
				Style("text-decoration", "none").
				Text(relayIcon),
		),
	}
	if best, ok := State.BestResult(); ok {
		actions = append(actions, app.Li().Body(
			app.Small().Text(fmt.Sprintf("Best: %d attempts, %s", best.Attempts, best.DisplayTime)),
		))
	}

	return app.Nav().Body(
		app.Ul().Body(
			app.Li().Body(
				app.Strong().
					Style("cursor", "pointer").
					OnClick(t.onBannerClick).
					Text("GoMemory"),
				app.Small().Style("margin-left", "0.5rem").Text(game.Version),
			),
		),
		app.Ul().Body(actions...),
	)
}
