// Package terminal plays the memory game in a text terminal using tcell.
package terminal

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/mattn/go-runewidth"
	"k8s.io/klog/v2"
)

const helpLine = "arrows/hjkl move · space/enter pick · r restart · m mute · q quit"

// Options override the UI defaults, mostly for tests.
type Options struct {
	Sounds    *Sounds
	Scheduler game.Scheduler // Default: timers delivered through the screen's event queue.
	Clock     game.Clock
	Rand      *rand.Rand
}

// UI is the terminal adapter: it owns a Controller and draws its board on a
// tcell.Screen. All methods run on the goroutine that calls Run.
type UI struct {
	screen  tcell.Screen
	ctrl    *game.Controller
	layout  Layout
	palette palette
	sounds  *Sounds
	clock   game.Clock

	cursor  int
	lastHit game.PickResult
	over    *game.OverDetail
	quit    bool
}

// New creates the controller for settings and starts the first game.
// The screen must already be initialized.
func New(screen tcell.Screen, settings config.Config, opts Options) (*UI, error) {
	templates, err := settings.Templates()
	if err != nil {
		return nil, err
	}
	u := &UI{
		screen:  screen,
		palette: paletteFor(settings.Style),
		sounds:  opts.Sounds,
		clock:   opts.Clock,
	}
	if u.clock == nil {
		u.clock = game.SystemClock{}
	}
	cfg := settings.Game()
	cfg.Scheduler = opts.Scheduler
	if cfg.Scheduler == nil {
		cfg.Scheduler = game.NewDispatchScheduler(u.post)
	}
	cfg.Clock = u.clock
	cfg.Rand = opts.Rand
	u.ctrl, err = game.New(game.HostFunc(u.onNotify), templates, cfg)
	if err != nil {
		return nil, err
	}
	if err := u.restart(); err != nil {
		return nil, err
	}
	return u, nil
}

// Controller exposes the running game.
func (u *UI) Controller() *game.Controller { return u.ctrl }

// Cursor is the slot index under the keyboard cursor.
func (u *UI) Cursor() int { return u.cursor }

// Done reports whether the user asked to quit.
func (u *UI) Done() bool { return u.quit }

// post runs fn on the event loop.
func (u *UI) post(fn func()) {
	if err := u.screen.PostEvent(tcell.NewEventInterrupt(fn)); err != nil {
		klog.Warningf("terminal: dropped event: %v", err)
	}
}

// Run draws and handles events until the user quits or ctx is cancelled.
// It ends the game before returning.
func (u *UI) Run(ctx context.Context) error {
	defer u.ctrl.End()
	defer u.sounds.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				u.post(func() { u.quit = true })
				return
			case <-ticker.C:
				// Redraw the clock.
				u.post(func() {})
			}
		}
	}()

	for !u.quit {
		u.Draw()
		ev := u.screen.PollEvent()
		if ev == nil {
			return nil
		}
		u.HandleEvent(ev)
	}
	return nil
}

// HandleEvent applies one tcell event.
func (u *UI) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func()); ok {
			fn()
		}
	case *tcell.EventResize:
		u.screen.Sync()
	case *tcell.EventKey:
		u.handleKey(ev)
	}
}

func (u *UI) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		u.quit = true
	case tcell.KeyLeft:
		u.move(-1, 0)
	case tcell.KeyRight:
		u.move(1, 0)
	case tcell.KeyUp:
		u.move(0, -1)
	case tcell.KeyDown:
		u.move(0, 1)
	case tcell.KeyEnter:
		u.pick()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			u.quit = true
		case 'h':
			u.move(-1, 0)
		case 'l':
			u.move(1, 0)
		case 'k':
			u.move(0, -1)
		case 'j':
			u.move(0, 1)
		case ' ':
			u.pick()
		case 'r':
			if err := u.restart(); err != nil {
				klog.Errorf("terminal: restart: %v", err)
			}
		case 'm':
			if u.sounds != nil {
				u.sounds.Muted = !u.sounds.Muted
			}
		}
	}
}

func (u *UI) move(dx, dy int) {
	u.cursor = u.layout.Move(u.cursor, dx, dy)
}

func (u *UI) pick() {
	result := u.ctrl.PickSlot(u.cursor)
	klog.V(1).Infof("terminal: slot %d -> %s", u.cursor, result)
	switch result {
	case game.PickMatched:
		u.sounds.Play(CueMatch)
	case game.PickMismatched:
		u.sounds.Play(CueMismatch)
	}
	if result != game.PickRejected {
		u.lastHit = result
	}
}

func (u *UI) restart() error {
	u.over = nil
	u.lastHit = game.PickRejected
	if err := u.ctrl.Start(); err != nil {
		return err
	}
	u.layout = NewLayout(u.ctrl.Deck())
	if u.cursor >= u.layout.N {
		u.cursor = 0
	}
	return nil
}

func (u *UI) onNotify(e game.Event) {
	klog.V(1).Infof("terminal: %s", e.Name())
	if e.Kind == game.EventOver {
		u.over = e.Over
		u.sounds.Play(CueOver)
	}
}

func (u *UI) elapsed() time.Duration {
	if u.over != nil {
		return time.Duration(u.over.ElapsedMilliseconds) * time.Millisecond
	}
	return u.clock.Now().Sub(u.ctrl.StartedAt())
}

func (u *UI) statusLine() string {
	switch {
	case u.over != nil:
		return fmt.Sprintf("Solved in %d attempts, %s. Press r to play again.", u.over.Attempts, u.over.DisplayTime)
	case u.ctrl.RequestClose():
		return "No match. Pick any tile to continue."
	case u.lastHit == game.PickMatched:
		return "Match!"
	case u.lastHit == game.PickMismatched:
		return "No match."
	}
	return fmt.Sprintf("Find groups of %d", u.ctrl.GroupSize())
}

// Draw renders the header, the board and the status lines.
func (u *UI) Draw() {
	u.screen.Clear()
	p := u.palette
	header := fmt.Sprintf("%s · %d attempts · %s", game.Name, u.ctrl.Attempts(), game.FormatElapsed(u.elapsed(), false))
	u.drawText(0, 0, header, p.header)

	picked := make(map[int]bool)
	for _, idx := range u.ctrl.Picks() {
		picked[idx] = true
	}
	hidden := strings.Repeat("░", u.layout.FaceW)
	for _, s := range u.ctrl.Slots() {
		x, y := u.layout.Origin(s.Index)
		face, style := hidden, p.hidden
		if s.Tile != nil {
			face = s.Tile.Face
			switch {
			case u.ctrl.IsSolved(s.Index):
				style = p.solved
			case picked[s.Index]:
				style = p.picked
			default:
				style = p.revealed
			}
		}
		if s.Index == u.cursor {
			u.screen.SetContent(x, y, '[', nil, p.cursor)
			u.screen.SetContent(x+3+u.layout.FaceW, y, ']', nil, p.cursor)
		}
		end := u.drawText(x+2, y, face, style)
		for ; end < x+2+u.layout.FaceW; end++ {
			u.screen.SetContent(end, y, ' ', nil, style)
		}
	}

	bottom := u.layout.Bottom()
	u.drawText(0, bottom, u.statusLine(), p.status)
	u.drawText(0, bottom+1, helpLine, p.help)
	u.screen.Show()
}

// drawText writes s at (x, y) and returns the column after it.
func (u *UI) drawText(x, y int, s string, style tcell.Style) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		u.screen.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}
