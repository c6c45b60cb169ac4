package goap

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

type stubAgent struct {
	memory *worldstate.State
}

func (a *stubAgent) ID() string                { return "stub" }
func (a *stubAgent) Memory() *worldstate.State { return a.memory }

func TestResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		result   Result
		terminal bool
		str      string
	}{
		{Running, false, "running"},
		{Success, true, "success"},
		{Failure, true, "failure"},
		{Result(42), false, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.result.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.str, got, tt.terminal)
		}
		if got := tt.result.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
	}
}

func TestBaseAction_Cost(t *testing.T) {
	t.Parallel()

	t.Run("failure penalty raises cost", func(t *testing.T) {
		t.Parallel()
		a := NewAction("cast", WithCost(5), WithFailurePenalty(2))
		if got := a.Cost(nil, nil); got != 5 {
			t.Errorf("Cost() = %v, want 5", got)
		}
		a.RecordFailure()
		a.RecordFailure()
		if got := a.Cost(nil, nil); got != 9 {
			t.Errorf("Cost() after 2 failures = %v, want 9", got)
		}
		if a.Failures() != 2 {
			t.Errorf("Failures() = %d, want 2", a.Failures())
		}
		a.ResetFailures()
		if a.Failures() != 0 {
			t.Errorf("Failures() after reset = %d, want 0", a.Failures())
		}
	})

	t.Run("cost is clamped to MinCost", func(t *testing.T) {
		t.Parallel()
		a := NewAction("free", WithCost(0))
		if got := a.Cost(nil, nil); got != MinCost {
			t.Errorf("Cost() = %v, want %v", got, MinCost)
		}
	})

	t.Run("dynamic cost sees the state", func(t *testing.T) {
		t.Parallel()
		a := NewAction("walk", WithCostFunc(func(_ Agent, s *worldstate.State) float64 {
			v, _ := s.Get("distance")
			d, _ := v.AsFloat()
			return d
		}))
		s := worldstate.New().With("distance", worldstate.Float(7))
		if got := a.Cost(nil, s); got != 7 {
			t.Errorf("Cost() = %v, want 7", got)
		}
	})
}

func TestBaseAction_CheckPreconditions(t *testing.T) {
	t.Parallel()

	pre := worldstate.New().With("canCast", worldstate.Bool(true))
	a := NewAction("cast", WithPreconditions(pre))

	ok := worldstate.New().With("canCast", worldstate.Bool(true))
	bad := worldstate.New().With("canCast", worldstate.Bool(false))

	if !a.CheckPreconditions(nil, ok) {
		t.Error("CheckPreconditions() = false, want true")
	}
	if a.CheckPreconditions(nil, bad) {
		t.Error("CheckPreconditions() = true, want false")
	}

	custom := NewAction("custom", WithPreconditions(pre), WithCheck(func(Agent, *worldstate.State) bool {
		return false
	}))
	if custom.CheckPreconditions(nil, ok) {
		t.Error("custom check should take precedence")
	}
}

func TestBaseAction_Run(t *testing.T) {
	t.Parallel()

	if got := NewAction("instant").Run(nil); got != Success {
		t.Errorf("default Run() = %s, want success", got)
	}

	ticks := 0
	resets := 0
	a := NewAction("channel",
		WithRun(func(Agent) Result {
			ticks++
			if ticks < 3 {
				return Running
			}
			return Success
		}),
		WithReset(func() { resets++ }),
		Interruptible(),
	)

	a.Reset()
	for i := 0; i < 2; i++ {
		if got := a.Run(nil); got != Running {
			t.Fatalf("tick %d Run() = %s, want running", i, got)
		}
	}
	if got := a.Run(nil); got != Success {
		t.Errorf("Run() = %s, want success", got)
	}
	if resets != 1 {
		t.Errorf("resets = %d, want 1", resets)
	}
	if !a.Interruptible() {
		t.Error("Interruptible() = false, want true")
	}
}

func TestBaseGoal(t *testing.T) {
	t.Parallel()

	state := worldstate.New().With("targetDead", worldstate.Bool(true))
	g := NewGoal("kill", state, WithPriorityFunc(func(s *worldstate.State) float64 {
		if s.Has("hasTarget") {
			return 10
		}
		return 0
	}))

	current := worldstate.New()
	if got := g.Priority(current); got != 0 {
		t.Errorf("Priority() = %v, want 0", got)
	}
	current.SetBool("hasTarget", true)
	if got := g.Priority(current); got != 10 {
		t.Errorf("Priority() = %v, want 10", got)
	}

	first := g.IsSatisfied(current)
	second := g.IsSatisfied(current)
	if first || second {
		t.Error("IsSatisfied() = true before target is dead")
	}

	current.SetBool("targetDead", true)
	if !g.IsSatisfied(current) {
		t.Error("IsSatisfied() = false after target is dead")
	}

	flag := NewGoal("flag", nil, WithSatisfiedFunc(func(*worldstate.State) bool { return true }))
	if !flag.IsSatisfied(worldstate.New()) {
		t.Error("custom satisfied func should be used")
	}
	if flag.Priority(nil) != 1 {
		t.Errorf("default priority = %v, want 1", flag.Priority(nil))
	}
}

func TestPlan_Queue(t *testing.T) {
	t.Parallel()

	a, b := NewAction("a"), NewAction("b")
	p := &Plan{Actions: []Action{a, b}}
	clone := p.Clone()

	if p.Peek() != a {
		t.Error("Peek() should return first action")
	}
	if p.Pop() != a || p.Len() != 1 {
		t.Error("Pop() should remove first action")
	}
	if got := p.Names(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Names() = %v, want [b]", got)
	}
	if clone.Len() != 2 {
		t.Errorf("clone Len() = %d, want 2", clone.Len())
	}

	p.Pop()
	if !p.Empty() || p.Pop() != nil || p.Peek() != nil {
		t.Error("empty plan should return nil")
	}

	var nilPlan *Plan
	if !nilPlan.Empty() || len(nilPlan.Names()) != 0 || nilPlan.Clone() != nil {
		t.Error("nil plan should behave as empty")
	}
}

func TestSensorFunc(t *testing.T) {
	t.Parallel()

	agent := &stubAgent{memory: worldstate.New()}
	inits := 0
	s := NewSensor("health", func(a Agent) error {
		a.Memory().SetInt("health", 80)
		return nil
	}).WithInit(func(Agent) { inits++ })

	s.Init(agent)
	if err := s.Update(agent); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if inits != 1 {
		t.Errorf("inits = %d, want 1", inits)
	}
	if !agent.memory.Has("health") {
		t.Error("sensor did not write memory")
	}

	failing := NewSensor("broken", func(Agent) error { return ErrInvalidAction })
	if err := failing.Update(agent); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Update() error = %v", err)
	}
}
