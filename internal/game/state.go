package game

// Phase is the session state of a Controller.
//
//	Created -> Started -> (Picking <-> Evaluating -> [Closing] -> Picking)* -> Over -> Ended
//
// Evaluating is transient (inside PickSlot) and never observed from outside.
type Phase int

const (
	PhaseCreated    Phase = iota // Deck assembled, board not built.
	PhaseStarted                 // Board built, nothing picked yet.
	PhasePicking                 // Some picks open or solved.
	PhaseEvaluating              // Pick set full and being compared.
	PhaseClosing                 // Mismatched pick set waiting to be closed.
	PhaseOver                    // Every group solved.
	PhaseEnded                   // Torn down, terminal.
)

var phaseNames = [...]string{
	PhaseCreated:    "created",
	PhaseStarted:    "started",
	PhasePicking:    "picking",
	PhaseEvaluating: "evaluating",
	PhaseClosing:    "closing",
	PhaseOver:       "over",
	PhaseEnded:      "ended",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Playable reports whether PickSlot can change state in this phase.
func (p Phase) Playable() bool {
	return p == PhaseStarted || p == PhasePicking || p == PhaseClosing
}
