package session

// Phase is the discrete mode of a Session.
type Phase string

const (
	PhaseMenu           Phase = "menu"
	PhaseCategorySelect Phase = "category-select"
	PhasePlaying        Phase = "playing"
	PhaseResults        Phase = "results"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// validTransitions lists every phase change the state machine can make.
// Self-transitions within playing (guess, hint, tick) are not phase changes.
var validTransitions = map[Phase][]Phase{ //nolint:gochecknoglobals // static transition table
	PhaseMenu:           {PhaseCategorySelect},
	PhaseCategorySelect: {PhasePlaying, PhaseMenu},
	PhasePlaying:        {PhaseResults},
	PhaseResults:        {PhaseCategorySelect, PhaseMenu, PhasePlaying},
}

// CanTransitionTo checks if a transition from the current phase to target is valid.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, phase := range validTransitions[p] {
		if phase == target {
			return true
		}
	}
	return false
}
