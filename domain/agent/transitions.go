package agent

// Transitions defines which state changes the think cycle may make.
//
// Transitions is not safe for concurrent modification. Configure it before
// handing it to an agent; the read methods are safe afterwards.
type Transitions struct {
	rules map[State][]State
}

// TransitionRules maps states to the states they can transition to.
type TransitionRules map[State][]State

// NewTransitions creates an empty rule set.
func NewTransitions() *Transitions {
	return &Transitions{rules: make(map[State][]State)}
}

// NewTransitionsWith creates a rule set from rules.
func NewTransitionsWith(rules TransitionRules) *Transitions {
	t := NewTransitions()
	for from, toStates := range rules {
		for _, to := range toStates {
			t.Allow(from, to)
		}
	}
	return t
}

// Allow permits a transition.
func (t *Transitions) Allow(from, to State) *Transitions {
	t.rules[from] = append(t.rules[from], to)
	return t
}

// CanTransition reports whether from → to is permitted.
func (t *Transitions) CanTransition(from, to State) bool {
	for _, s := range t.rules[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns all states reachable from from.
func (t *Transitions) AllowedTransitions(from State) []State {
	return t.rules[from]
}

// DefaultTransitions returns the think-cycle rules:
//
//	idle → planning → executing → idle
//	  ↑        ↓          ↓
//	  └──── suspended ←───┘
//
// Every non-terminal state can move to disabled.
func DefaultTransitions() *Transitions {
	return NewTransitionsWith(TransitionRules{
		StateIdle:      {StatePlanning, StateExecuting, StateSuspended, StateDisabled},
		StatePlanning:  {StateExecuting, StateIdle, StateSuspended, StateDisabled},
		StateExecuting: {StateIdle, StatePlanning, StateSuspended, StateDisabled},
		StateSuspended: {StateIdle, StateDisabled},
	})
}
