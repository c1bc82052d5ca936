package game

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// recorder is a Host that keeps every notification.
type recorder struct {
	events []Event
}

func (r *recorder) Notify(e Event) { r.events = append(r.events, e) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type fixture struct {
	ctrl  *Controller
	host  *recorder
	sched *ManualScheduler
	clock *ManualClock
}

func newFixture(t *testing.T, numTemplates int, cfg Config) *fixture {
	t.Helper()
	templates, err := LookupTileSet("letters", numTemplates)
	require.NoError(t, err)
	f := &fixture{
		host:  &recorder{},
		sched: NewManualScheduler(),
		clock: NewManualClock(testStart),
	}
	cfg.Scheduler = f.sched
	cfg.Clock = f.clock
	cfg.Rand = rand.New(rand.NewSource(1))
	f.ctrl, err = New(f.host, templates, cfg)
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Start())
	return f
}

// byKey groups slot indices by the key of the tile they hide.
func (f *fixture) byKey() map[string][]int {
	groups := make(map[string][]int)
	for i, tile := range f.ctrl.Deck() {
		groups[tile.Key] = append(groups[tile.Key], i)
	}
	return groups
}

// mismatchedPair returns two slots holding different tiles.
func (f *fixture) mismatchedPair(t *testing.T) (int, int) {
	t.Helper()
	deck := f.ctrl.Deck()
	for j := 1; j < len(deck); j++ {
		if deck[j].Key != deck[0].Key {
			return 0, j
		}
	}
	t.Fatal("deck has a single kind")
	return 0, 0
}

func TestNewValidation(t *testing.T) {
	tiles := []Tile{{Key: "a"}}
	_, err := New(nil, tiles, Config{})
	assert.ErrorIs(t, err, ErrNilHost)

	_, err = New(&recorder{}, nil, Config{})
	assert.ErrorIs(t, err, ErrNoTiles)

	groupSizes := []struct {
		templates []Tile
		groupSize int
	}{
		{tiles, -1},
		{tiles, math.MaxInt/2 + 1},
		{[]Tile{{Key: "a"}, {Key: "b"}}, math.MaxInt/2 + 1},
		{tiles, 100_000_000},
		{[]Tile{{Key: "a"}, {Key: "b"}}, MaxDeckSize/2 + 1},
	}
	for _, tc := range groupSizes {
		assert.NotPanics(t, func() {
			_, err = New(&recorder{}, tc.templates, Config{GroupSize: tc.groupSize})
		}, "groupSize=%d", tc.groupSize)
		assert.ErrorIs(t, err, ErrInvalidGroupSize, "groupSize=%d", tc.groupSize)
	}

	big, err := New(&recorder{}, []Tile{{Key: "a"}, {Key: "b"}}, Config{GroupSize: MaxDeckSize / 2})
	require.NoError(t, err)
	assert.Equal(t, MaxDeckSize, big.DeckLen())

	_, err = New(&recorder{}, tiles, Config{ResetDelay: time.Second})
	assert.ErrorIs(t, err, ErrNoScheduler)
	manual, err := New(&recorder{}, []Tile{{Key: "a"}, {Key: "b"}}, Config{ResetDelay: 100 * time.Millisecond})
	require.NoError(t, err, "manual close needs no scheduler")
	require.NoError(t, manual.Start())
	deck := manual.Deck()
	other := 1
	for deck[other].Key == deck[0].Key {
		other++
	}
	assert.Equal(t, PickRevealed, manual.PickSlot(0))
	assert.Equal(t, PickMismatched, manual.PickSlot(other))
	assert.False(t, manual.ClosePending())
	assert.True(t, manual.RequestClose())
	assert.Len(t, manual.Picks(), 2)

	c, err := New(&recorder{}, tiles, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultGroupSize, c.GroupSize())
	assert.Equal(t, 2, c.DeckLen())
	assert.Equal(t, PhaseCreated, c.Phase())
}

func TestNewEmitsCreated(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	host := NewMockHost(mockCtrl)
	host.EXPECT().Notify(Event{Kind: EventCreated}).Times(1)

	c, err := New(host, []Tile{{Key: "a"}, {Key: "b"}}, Config{GroupSize: 3, StyleTag: "dark"})
	require.NoError(t, err)
	assert.Equal(t, 6, c.DeckLen())
	assert.Equal(t, "dark", c.StyleTag())
	assert.Equal(t, "mge:created", Event{Kind: EventCreated}.Name())
}

func TestResetDelayNormalization(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{-time.Millisecond, 0},
		{0, 0},
		{299 * time.Millisecond, 0},
		{300 * time.Millisecond, 300 * time.Millisecond},
		{500 * time.Millisecond, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		c, err := New(&recorder{}, []Tile{{Key: "a"}}, Config{ResetDelay: tt.in, Scheduler: NewManualScheduler()})
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.ResetDelay(), "ResetDelay(%s)", tt.in)
	}
}

func TestStartBuildsFaceDownBoard(t *testing.T) {
	f := newFixture(t, 2, Config{})
	slots := f.ctrl.Slots()
	require.Len(t, slots, 4)
	for i, s := range slots {
		assert.Equal(t, i, s.Index)
		assert.False(t, s.Revealed())
	}
	assert.Equal(t, 0, f.ctrl.Attempts())
	assert.Equal(t, PhaseStarted, f.ctrl.Phase())

	started, ok := f.host.last(EventStarted)
	require.True(t, ok)
	assert.Equal(t, testStart, started.Started)
	assert.Equal(t, []EventKind{EventCreated, EventStarted}, []EventKind{f.host.events[0].Kind, f.host.events[1].Kind})
}

func TestPickBeforeStartIsIgnored(t *testing.T) {
	c, err := New(&recorder{}, []Tile{{Key: "a"}}, Config{})
	require.NoError(t, err)
	assert.Equal(t, PickRejected, c.PickSlot(0))
	assert.Empty(t, c.Picks())
}

func TestMatchingPair(t *testing.T) {
	f := newFixture(t, 2, Config{})
	pair := f.byKey()["t0"]
	require.Len(t, pair, 2)

	assert.Equal(t, PickRevealed, f.ctrl.PickSlot(pair[0]))
	assert.Equal(t, []int{pair[0]}, f.ctrl.Picks())
	assert.Equal(t, PickMatched, f.ctrl.PickSlot(pair[1]))

	assert.Empty(t, f.ctrl.Picks())
	assert.Equal(t, pair, f.ctrl.Solved())
	assert.Equal(t, 1, f.ctrl.Attempts())
	assert.False(t, f.ctrl.RequestClose())
	slots := f.ctrl.Slots()
	assert.True(t, slots[pair[0]].Revealed())
	assert.True(t, slots[pair[1]].Revealed())
	assert.Equal(t, 0, f.host.count(EventOver))
}

func TestMismatchWithoutDelayWaitsForNextActivation(t *testing.T) {
	f := newFixture(t, 2, Config{ResetDelay: 100 * time.Millisecond})
	a, b := f.mismatchedPair(t)

	f.ctrl.PickSlot(a)
	assert.Equal(t, PickMismatched, f.ctrl.PickSlot(b))
	assert.True(t, f.ctrl.RequestClose())
	assert.False(t, f.ctrl.ClosePending())
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, 1, f.ctrl.Attempts())
	assert.Equal(t, PhaseClosing, f.ctrl.Phase())

	// Next activation closes the pair, then picks normally.
	assert.Equal(t, PickRevealed, f.ctrl.PickSlot(a))
	assert.False(t, f.ctrl.RequestClose())
	assert.Equal(t, []int{a}, f.ctrl.Picks())
	assert.False(t, f.ctrl.Slots()[b].Revealed())
}

func TestMismatchTimerCancelledByActivation(t *testing.T) {
	f := newFixture(t, 2, Config{ResetDelay: 500 * time.Millisecond})
	a, b := f.mismatchedPair(t)

	f.ctrl.PickSlot(a)
	f.ctrl.PickSlot(b)
	require.True(t, f.ctrl.ClosePending())
	require.Equal(t, 1, f.sched.Pending())
	assert.False(t, f.ctrl.RequestClose())

	f.sched.Advance(200 * time.Millisecond)
	assert.Len(t, f.ctrl.Picks(), 2)

	assert.Equal(t, PickRevealed, f.ctrl.PickSlot(b))
	assert.Equal(t, 0, f.sched.Pending())
	assert.False(t, f.ctrl.ClosePending())
	assert.Equal(t, []int{b}, f.ctrl.Picks())
	assert.False(t, f.ctrl.Slots()[a].Revealed())

	f.sched.Advance(time.Second)
	assert.Equal(t, []int{b}, f.ctrl.Picks())
}

func TestMismatchTimerAutoCloses(t *testing.T) {
	f := newFixture(t, 2, Config{ResetDelay: 500 * time.Millisecond})
	a, b := f.mismatchedPair(t)

	f.ctrl.PickSlot(a)
	f.ctrl.PickSlot(b)
	f.sched.Advance(500 * time.Millisecond)

	assert.Empty(t, f.ctrl.Picks())
	assert.False(t, f.ctrl.RequestClose())
	assert.False(t, f.ctrl.ClosePending())
	assert.False(t, f.ctrl.Slots()[a].Revealed())
	assert.False(t, f.ctrl.Slots()[b].Revealed())
	assert.Equal(t, PhasePicking, f.ctrl.Phase())
}

// queueScheduler never runs callbacks itself and ignores Cancel, like a
// dispatch queue that already holds the fired callback.
type queueScheduler struct {
	fns []func()
}

func (q *queueScheduler) Schedule(d time.Duration, fn func()) TimerToken {
	q.fns = append(q.fns, fn)
	return TimerToken(len(q.fns))
}

func (q *queueScheduler) Cancel(TimerToken) {}

func TestStaleTimerFireIsIgnored(t *testing.T) {
	q := &queueScheduler{}
	c, err := New(&recorder{}, []Tile{{Key: "a"}, {Key: "b"}}, Config{
		ResetDelay: time.Second, Scheduler: q, Rand: rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	require.NoError(t, c.Start())
	deck := c.Deck()
	first := 0
	second := 1
	for deck[second].Key == deck[first].Key {
		second++
	}
	c.PickSlot(first)
	c.PickSlot(second)
	require.Len(t, q.fns, 1)

	// Activation force-closes; the queued fire must not touch the new pick.
	c.PickSlot(second)
	q.fns[0]()
	assert.Equal(t, []int{second}, c.Picks())
	assert.True(t, c.Slots()[second].Revealed())
}

func TestInvalidActivationsAreIgnored(t *testing.T) {
	f := newFixture(t, 3, Config{})
	pair := f.byKey()["t1"]

	f.ctrl.PickSlot(pair[0])
	assert.Equal(t, PickRejected, f.ctrl.PickSlot(pair[0]), "already revealed")
	assert.Equal(t, PickRejected, f.ctrl.PickSlot(-1), "negative index")
	assert.Equal(t, PickRejected, f.ctrl.PickSlot(f.ctrl.DeckLen()), "past the board")
	assert.Equal(t, []int{pair[0]}, f.ctrl.Picks())
	assert.Equal(t, 0, f.ctrl.Attempts())

	f.ctrl.PickSlot(pair[1])
	assert.Equal(t, PickRejected, f.ctrl.PickSlot(pair[1]), "solved slot")
	assert.Equal(t, 1, f.ctrl.Attempts())
}

func TestChainedEqualityForTriples(t *testing.T) {
	f := newFixture(t, 2, Config{GroupSize: 3})
	groups := f.byKey()
	require.Len(t, groups["t0"], 3)

	f.ctrl.PickSlot(groups["t0"][0])
	f.ctrl.PickSlot(groups["t0"][1])
	assert.Equal(t, PickMismatched, f.ctrl.PickSlot(groups["t1"][0]))
	assert.Empty(t, f.ctrl.Solved())

	for _, idx := range groups["t0"] {
		f.ctrl.PickSlot(idx)
	}
	assert.ElementsMatch(t, groups["t0"], f.ctrl.Solved())
	assert.Equal(t, 2, f.ctrl.Attempts())
}

func TestGameOverFiresOnce(t *testing.T) {
	f := newFixture(t, 3, Config{ResetDelay: time.Second})
	a, b := f.mismatchedPair(t)
	f.ctrl.PickSlot(a)
	f.ctrl.PickSlot(b)

	f.clock.Advance(time.Hour + 2*time.Minute + 3*time.Second + 400*time.Millisecond)
	for _, group := range f.byKey() {
		for _, idx := range group {
			f.ctrl.PickSlot(idx)
		}
	}

	require.Equal(t, 1, f.host.count(EventOver))
	over, _ := f.host.last(EventOver)
	require.NotNil(t, over.Over)
	assert.Equal(t, 4, over.Over.Attempts)
	assert.Equal(t, f.ctrl.EndedAt().Sub(f.ctrl.StartedAt()).Milliseconds(), over.Over.ElapsedMilliseconds)
	assert.Equal(t, int64(3723400), over.Over.ElapsedMilliseconds)
	assert.Equal(t, "01:02:03", over.Over.DisplayTime)
	assert.Equal(t, PhaseOver, f.ctrl.Phase())
	assert.Len(t, f.ctrl.Solved(), f.ctrl.DeckLen())

	for i := range f.ctrl.DeckLen() {
		assert.Equal(t, PickRejected, f.ctrl.PickSlot(i))
	}
	assert.Equal(t, 1, f.host.count(EventOver))
}

func TestGroupSizeOneMatchesEveryPick(t *testing.T) {
	f := newFixture(t, 3, Config{GroupSize: 1})
	require.Equal(t, 3, f.ctrl.DeckLen())
	for i := range 3 {
		assert.Equal(t, PickMatched, f.ctrl.PickSlot(i))
		assert.Equal(t, i+1, f.ctrl.Attempts())
	}
	assert.Equal(t, 1, f.host.count(EventOver))

	single := newFixture(t, 1, Config{GroupSize: 1})
	assert.Equal(t, PickMatched, single.ctrl.PickSlot(0))
	assert.Equal(t, 1, single.host.count(EventOver))
}

func TestRandomActivationsKeepInvariants(t *testing.T) {
	for _, groupSize := range []int{1, 2, 3} {
		for _, delay := range []time.Duration{0, 400 * time.Millisecond} {
			f := newFixture(t, 4, Config{GroupSize: groupSize, ResetDelay: delay})
			rng := rand.New(rand.NewSource(int64(groupSize)))
			prevSolved := 0
			for step := 0; step < 20000 && f.ctrl.Phase() != PhaseOver; step++ {
				if delay > 0 && rng.Intn(4) == 0 {
					f.sched.Advance(delay)
				}
				attempts := f.ctrl.Attempts()
				result := f.ctrl.PickSlot(rng.Intn(f.ctrl.DeckLen()+2) - 1)

				require.LessOrEqual(t, len(f.ctrl.Picks()), groupSize)
				solved := f.ctrl.Solved()
				require.GreaterOrEqual(t, len(solved), prevSolved)
				seen := make(map[int]bool)
				for _, idx := range solved {
					require.False(t, seen[idx], "duplicate solved index %d", idx)
					seen[idx] = true
				}
				prevSolved = len(solved)

				switch result {
				case PickMatched, PickMismatched:
					require.Equal(t, attempts+1, f.ctrl.Attempts())
				default:
					require.Equal(t, attempts, f.ctrl.Attempts())
				}
			}
			require.Equal(t, PhaseOver, f.ctrl.Phase(), "group=%d delay=%s", groupSize, delay)
			require.Equal(t, 1, f.host.count(EventOver))
		}
	}
}

func TestRestartResetsSession(t *testing.T) {
	f := newFixture(t, 2, Config{ResetDelay: 500 * time.Millisecond})
	pair := f.byKey()["t0"]
	f.ctrl.PickSlot(pair[0])
	f.ctrl.PickSlot(pair[1])
	a, b := f.mismatchedPair(t)
	for _, idx := range []int{a, b} {
		if !f.ctrl.IsSolved(idx) {
			f.ctrl.PickSlot(idx)
		}
	}

	require.NoError(t, f.ctrl.Start())
	assert.Empty(t, f.ctrl.Picks())
	assert.Empty(t, f.ctrl.Solved())
	assert.Equal(t, 0, f.ctrl.Attempts())
	assert.False(t, f.ctrl.ClosePending())
	assert.Equal(t, 0, f.sched.Pending())
	for _, s := range f.ctrl.Slots() {
		assert.False(t, s.Revealed())
	}
	assert.Equal(t, 2, f.host.count(EventStarted))
}

func TestEndTearsDown(t *testing.T) {
	f := newFixture(t, 2, Config{ResetDelay: 500 * time.Millisecond, GroupSize: 2})
	a, b := f.mismatchedPair(t)
	f.ctrl.PickSlot(a)
	f.ctrl.PickSlot(b)

	f.ctrl.End()
	assert.Equal(t, 0, f.ctrl.DeckLen())
	assert.Equal(t, 0, f.ctrl.Attempts())
	assert.Empty(t, f.ctrl.Slots())
	assert.Empty(t, f.ctrl.Picks())
	assert.Nil(t, f.ctrl.Host())
	assert.Equal(t, DefaultGroupSize, f.ctrl.GroupSize())
	assert.Equal(t, time.Duration(0), f.ctrl.ResetDelay())
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, PhaseEnded, f.ctrl.Phase())

	assert.Equal(t, PickRejected, f.ctrl.PickSlot(0))
	assert.ErrorIs(t, f.ctrl.Start(), ErrEnded)
	f.ctrl.End()
	assert.Equal(t, 0, f.host.count(EventEnd), "end event is opt-in")
}

func TestExtendedEvents(t *testing.T) {
	f := newFixture(t, 2, Config{ExtendedEvents: true})
	a, b := f.mismatchedPair(t)
	f.ctrl.PickSlot(a)
	f.ctrl.PickSlot(b)
	pair := f.byKey()["t1"]
	f.ctrl.PickSlot(pair[0])
	f.ctrl.PickSlot(pair[1])

	require.Equal(t, 2, f.host.count(EventAttempt))
	attempt, _ := f.host.last(EventAttempt)
	assert.Equal(t, &AttemptDetail{Attempts: 2, Matched: true}, attempt.Attempt)

	f.ctrl.End()
	f.ctrl.End()
	assert.Equal(t, 1, f.host.count(EventEnd))
	assert.Equal(t, "mge:end", f.host.events[len(f.host.events)-1].Name())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "closing", PhaseClosing.String())
	assert.Equal(t, "unknown", Phase(42).String())
	assert.Equal(t, "mismatched", PickMismatched.String())
}
