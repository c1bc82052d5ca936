package game

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"k8s.io/klog/v2"
)

var (
	ErrNilHost          = errors.New("host is required")
	ErrNoTiles          = errors.New("at least one tile template is required")
	ErrInvalidGroupSize = errors.New("group size must be positive")
	ErrEnded            = errors.New("game session already ended")
	ErrNoScheduler      = errors.New("a scheduler is required when the reset delay is set")
)

// MaxDeckSize bounds the number of tiles New will deal.
const MaxDeckSize = 1024

// Config holds the optional Controller settings. Zero values select defaults.
type Config struct {
	// ResetDelay before a mismatched pick set closes by itself.
	// Below MinResetDelay the picks stay open until the next activation.
	ResetDelay time.Duration

	// GroupSize is how many identical tiles form a match. 0 means DefaultGroupSize.
	GroupSize int

	// StyleTag is a cosmetic class for the board root.
	StyleTag string

	// ExtendedEvents enables the EventAttempt and EventEnd notifications.
	ExtendedEvents bool

	// Scheduler delivers the auto-close callback on the goroutine driving the
	// Controller. Required when ResetDelay is at least MinResetDelay.
	Scheduler Scheduler
	Clock     Clock      // Default: SystemClock.
	Rand      *rand.Rand // Default: seeded from the clock.
}

// Controller owns one memory game session: deck, board, picks and timing.
//
// It is not safe for concurrent use: adapters drive it from a single goroutine,
// and the Scheduler delivers timer callbacks on that same goroutine.
type Controller struct {
	host      Host
	groupSize int
	delay     time.Duration
	styleTag  string
	extended  bool
	scheduler Scheduler
	clock     Clock
	rng       *rand.Rand

	deck   Deck
	board  []Slot
	picks  []int
	solved []int

	attempts     int
	startedAt    time.Time
	endedAt      time.Time
	closeToken   TimerToken
	requestClose bool
	over         bool
	phase        Phase
}

// New assembles the deck (each template replicated GroupSize times) and emits
// EventCreated on host.
func New(host Host, templates []Tile, cfg Config) (*Controller, error) {
	if host == nil {
		return nil, fmt.Errorf("game.New: %w", ErrNilHost)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("game.New: %w", ErrNoTiles)
	}
	groupSize := cfg.GroupSize
	if groupSize == 0 {
		groupSize = DefaultGroupSize
	}
	if groupSize < 0 {
		return nil, fmt.Errorf("game.New: %w (got %d)", ErrInvalidGroupSize, groupSize)
	}
	if groupSize > MaxDeckSize/len(templates) {
		return nil, fmt.Errorf("game.New: %w (%d x %d tiles exceeds %d)", ErrInvalidGroupSize, len(templates), groupSize, MaxDeckSize)
	}
	delay := NormalizeResetDelay(cfg.ResetDelay)
	if delay > 0 && cfg.Scheduler == nil {
		return nil, fmt.Errorf("game.New: %w", ErrNoScheduler)
	}

	c := &Controller{
		host:      host,
		groupSize: groupSize,
		delay:     delay,
		styleTag:  cfg.StyleTag,
		extended:  cfg.ExtendedEvents,
		scheduler: cfg.Scheduler,
		clock:     cfg.Clock,
		rng:       cfg.Rand,
		deck:      NewDeck(templates, groupSize),
		phase:     PhaseCreated,
	}
	if c.scheduler == nil {
		// Never armed: with no delay, mismatches close on the next activation.
		c.scheduler = NewManualScheduler()
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(c.clock.Now().UnixNano()))
	}
	klog.V(1).Infof("game: created deck of %d tiles (%d templates x %d), reset delay %s",
		len(c.deck), len(templates), groupSize, c.delay)
	c.host.Notify(Event{Kind: EventCreated})
	return c, nil
}

// Start shuffles the deck, builds a face-down board and emits EventStarted.
//
// Calling Start again restarts the session from scratch: picks, solved slots,
// attempts and any pending close are all reset. Start after End returns ErrEnded.
func (c *Controller) Start() error {
	if c.phase == PhaseEnded {
		return ErrEnded
	}
	c.cancelClose()
	c.deck.Shuffle(c.rng)

	c.attempts = 0
	c.picks = nil
	c.solved = nil
	c.requestClose = false
	c.over = false
	c.endedAt = time.Time{}
	c.board = make([]Slot, len(c.deck))
	for i := range c.board {
		c.board[i] = Slot{Index: i}
	}

	c.startedAt = c.clock.Now()
	c.phase = PhaseStarted
	klog.V(1).Infof("game: started with %d slots", len(c.board))
	c.host.Notify(Event{Kind: EventStarted, Started: c.startedAt})
	return nil
}

// PickSlot handles the activation of the slot at index.
//
// A pending mismatch is closed first (cancelling its timer if armed). The
// activation is then ignored if the pick set is full, the index is not a slot,
// the slot is already revealed, or the session is not running.
func (c *Controller) PickSlot(index int) PickResult {
	if !c.phase.Playable() {
		return PickRejected
	}
	if c.closeToken != 0 {
		c.scheduler.Cancel(c.closeToken)
		c.closeToken = 0
		c.requestClose = true
		c.closePicks()
	} else if c.requestClose {
		c.closePicks()
	}

	if len(c.picks) == c.groupSize || index < 0 || index >= len(c.board) || c.board[index].Tile != nil {
		klog.V(2).Infof("game: activation of slot %d ignored", index)
		return PickRejected
	}

	tile := c.deck[index]
	c.board[index].Tile = &tile
	c.picks = append(c.picks, index)
	c.phase = PhasePicking
	klog.V(2).Infof("game: slot %d revealed %s", index, tile)

	if len(c.picks) == c.groupSize {
		return c.evaluate()
	}
	return PickRevealed
}

func (c *Controller) evaluate() PickResult {
	if len(c.picks) != c.groupSize {
		return PickRevealed
	}
	c.phase = PhaseEvaluating

	result := PickMismatched
	if c.picksEqual() {
		result = PickMatched
		for _, idx := range c.picks {
			if !slices.Contains(c.solved, idx) {
				c.solved = append(c.solved, idx)
			}
		}
		c.picks = nil
		c.phase = PhasePicking
	} else {
		c.phase = PhaseClosing
		if c.delay == 0 {
			c.requestClose = true
		} else {
			var token TimerToken
			token = c.scheduler.Schedule(c.delay, func() {
				// Fires that were already queued when cancelled are stale.
				if c.closeToken != token {
					return
				}
				c.closeToken = 0
				c.requestClose = true
				c.closePicks()
			})
			c.closeToken = token
		}
	}
	c.attempts++
	klog.V(1).Infof("game: attempt %d %s", c.attempts, result)
	if c.extended {
		c.host.Notify(Event{Kind: EventAttempt, Attempt: &AttemptDetail{Attempts: c.attempts, Matched: result == PickMatched}})
	}

	if !c.over && len(c.solved) == len(c.deck) {
		c.over = true
		c.phase = PhaseOver
		c.endedAt = c.clock.Now()
		elapsed := c.endedAt.Sub(c.startedAt)
		over := &OverDetail{
			Attempts:            c.attempts,
			ElapsedMilliseconds: elapsed.Milliseconds(),
			DisplayTime:         FormatElapsed(elapsed, false),
		}
		klog.Infof("game: over after %d attempts in %s", over.Attempts, over.DisplayTime)
		c.host.Notify(Event{Kind: EventOver, Over: over})
	}
	return result
}

func (c *Controller) picksEqual() bool {
	first := c.deck[c.picks[0]].Key
	for _, idx := range c.picks[1:] {
		if c.deck[idx].Key != first {
			return false
		}
	}
	return true
}

// closePicks turns the slots of a full pick set face-down again.
func (c *Controller) closePicks() {
	if len(c.picks) != c.groupSize {
		return
	}
	for _, idx := range c.picks {
		c.board[idx].Tile = nil
	}
	c.requestClose = false
	c.picks = nil
	if c.phase == PhaseClosing {
		c.phase = PhasePicking
	}
}

func (c *Controller) cancelClose() {
	if c.closeToken != 0 {
		c.scheduler.Cancel(c.closeToken)
		c.closeToken = 0
	}
}

// End tears the session down and releases the host. It is terminal: later
// calls to PickSlot are ignored and Start returns ErrEnded.
func (c *Controller) End() {
	if c.phase == PhaseEnded {
		return
	}
	c.cancelClose()
	if c.extended && c.host != nil {
		c.host.Notify(Event{Kind: EventEnd})
	}
	c.groupSize = DefaultGroupSize
	c.delay = 0
	c.deck = nil
	c.attempts = 0
	c.board = nil
	c.picks = nil
	c.solved = nil
	c.requestClose = false
	c.host = nil
	c.phase = PhaseEnded
	klog.V(1).Infof("game: ended")
}

// Slots returns a copy of the board.
func (c *Controller) Slots() Board {
	out := make(Board, len(c.board))
	for i, s := range c.board {
		out[i] = s
		if s.Tile != nil {
			t := *s.Tile
			out[i].Tile = &t
		}
	}
	return out
}

// Deck returns a copy of the deck in board order.
func (c *Controller) Deck() Deck { return slices.Clone(c.deck) }

// Picks returns the open pick set, in pick order.
func (c *Controller) Picks() []int { return slices.Clone(c.picks) }

// Solved returns the solved slot indices, in solve order.
func (c *Controller) Solved() []int { return slices.Clone(c.solved) }

// IsSolved reports whether the slot at index belongs to a completed group.
func (c *Controller) IsSolved(index int) bool { return slices.Contains(c.solved, index) }

func (c *Controller) Attempts() int             { return c.attempts }
func (c *Controller) DeckLen() int              { return len(c.deck) }
func (c *Controller) GroupSize() int            { return c.groupSize }
func (c *Controller) ResetDelay() time.Duration { return c.delay }
func (c *Controller) StyleTag() string          { return c.styleTag }
func (c *Controller) Phase() Phase              { return c.phase }
func (c *Controller) StartedAt() time.Time      { return c.startedAt }
func (c *Controller) EndedAt() time.Time        { return c.endedAt }

// RequestClose reports whether a mismatched pick set waits for the next activation.
func (c *Controller) RequestClose() bool { return c.requestClose }

// ClosePending reports whether an auto-close timer is armed.
func (c *Controller) ClosePending() bool { return c.closeToken != 0 }

// Host returns the host, nil after End.
func (c *Controller) Host() Host { return c.host }
