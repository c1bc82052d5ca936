package game

import "time"

//go:generate mockgen -destination "mock_host_test.go" -package $GOPACKAGE -write_package_comment=false github.com/janpfeifer/GoMemory/internal/game Host

// EventKind identifies a lifecycle notification.
type EventKind string

const (
	EventCreated EventKind = ":created" // After construction, no payload.
	EventStarted EventKind = ":started" // After Start, payload Started.
	EventAttempt EventKind = ":attempt" // Per evaluation, only with Config.ExtendedEvents.
	EventOver    EventKind = ":over"    // Every group solved, payload Over.
	EventEnd     EventKind = ":end"     // From End, only with Config.ExtendedEvents.
)

// Event is a one-shot notification emitted to the Host.
type Event struct {
	Kind    EventKind
	Started time.Time      // Set for EventStarted.
	Attempt *AttemptDetail // Set for EventAttempt.
	Over    *OverDetail    // Set for EventOver.
}

// Name is the full notification name, e.g. "mge:over".
func (e Event) Name() string {
	return Alias + string(e.Kind)
}

// OverDetail is the payload of EventOver.
type OverDetail struct {
	Attempts            int    `json:"attempts"`
	ElapsedMilliseconds int64  `json:"elapsedMilliseconds"`
	DisplayTime         string `json:"displayTime"`
}

// AttemptDetail is the payload of EventAttempt.
type AttemptDetail struct {
	Attempts int  `json:"attempts"`
	Matched  bool `json:"matched"`
}

// Host is the surface a Controller reports to. Notifications are fire-and-forget.
type Host interface {
	Notify(Event)
}

// HostFunc adapts a function to Host.
type HostFunc func(Event)

func (f HostFunc) Notify(e Event) { f(e) }
