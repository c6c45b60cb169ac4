package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/event"
	"github.com/felixgeelhaar/goap-go/infrastructure/storage/memory"
)

func TestNewJournal(t *testing.T) {
	t.Parallel()

	j := memory.NewJournal()
	if j.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for new journal", j.Len())
	}
}

func TestJournal_Append(t *testing.T) {
	t.Parallel()

	t.Run("assigns ids and per-agent sequences", func(t *testing.T) {
		t.Parallel()

		j := memory.NewJournal()
		ctx := context.Background()

		err := j.Append(ctx,
			event.Event{AgentID: "guard-1", Type: event.TypeAgentStarted},
			event.Event{AgentID: "guard-2", Type: event.TypeAgentStarted},
			event.Event{AgentID: "guard-1", Type: event.TypeGoalSelected},
		)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := j.Append(ctx, event.Event{AgentID: "guard-1", Type: event.TypePlanRequested}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		events, err := j.Load(ctx, "guard-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("Load() len = %d, want 3", len(events))
		}
		for i, e := range events {
			if e.Sequence != uint64(i+1) {
				t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
			}
			if e.ID == "" {
				t.Errorf("events[%d].ID is empty", i)
			}
		}

		other, _ := j.Load(ctx, "guard-2")
		if len(other) != 1 || other[0].Sequence != 1 {
			t.Errorf("guard-2 events = %+v, want one event with sequence 1", other)
		}
	})

	t.Run("keeps supplied id", func(t *testing.T) {
		t.Parallel()

		j := memory.NewJournal()
		ctx := context.Background()

		_ = j.Append(ctx, event.Event{ID: "fixed", AgentID: "a", Type: event.TypeAgentStarted})
		events, _ := j.Load(ctx, "a")
		if events[0].ID != "fixed" {
			t.Errorf("ID = %s, want fixed", events[0].ID)
		}
	})

	t.Run("rejects invalid batch atomically", func(t *testing.T) {
		t.Parallel()

		j := memory.NewJournal()
		err := j.Append(context.Background(),
			event.Event{AgentID: "a", Type: event.TypeAgentStarted},
			event.Event{AgentID: "a"},
		)
		if !errors.Is(err, event.ErrInvalidEvent) {
			t.Errorf("Append() error = %v, want ErrInvalidEvent", err)
		}
		if j.Len() != 0 {
			t.Errorf("Len() = %d, want 0 after rejected batch", j.Len())
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		j := memory.NewJournal()
		if err := j.Append(ctx, event.Event{AgentID: "a", Type: event.TypeAgentStarted}); !errors.Is(err, context.Canceled) {
			t.Errorf("Append() error = %v, want context.Canceled", err)
		}
	})
}

func TestJournal_LoadFrom(t *testing.T) {
	t.Parallel()

	j := memory.NewJournal()
	ctx := context.Background()
	for _, typ := range []event.Type{event.TypeAgentStarted, event.TypeGoalSelected, event.TypePlanRequested, event.TypePlanFound} {
		_ = j.Append(ctx, event.Event{AgentID: "a", Type: typ})
	}

	events, err := j.LoadFrom(ctx, "a", 3)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("LoadFrom(3) len = %d, want 2", len(events))
	}
	if events[0].Type != event.TypePlanRequested {
		t.Errorf("events[0].Type = %s, want plan.requested", events[0].Type)
	}

	missing, err := j.Load(ctx, "nobody")
	if err != nil || missing == nil || len(missing) != 0 {
		t.Errorf("Load(nobody) = %v, %v, want empty slice", missing, err)
	}
}

func TestJournal_ListAgentsAndDelete(t *testing.T) {
	t.Parallel()

	j := memory.NewJournal()
	ctx := context.Background()
	for _, id := range []string{"zed", "alpha", "mid"} {
		_ = j.Append(ctx, event.Event{AgentID: id, Type: event.TypeAgentStarted})
	}

	agents, err := j.ListAgents(ctx)
	if err != nil {
		t.Fatalf("ListAgents() error = %v", err)
	}
	want := []string{"alpha", "mid", "zed"}
	for i := range want {
		if agents[i] != want[i] {
			t.Fatalf("ListAgents() = %v, want %v", agents, want)
		}
	}

	if err := j.Delete(ctx, "mid"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if j.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after delete", j.Len())
	}

	_ = j.Append(ctx, event.Event{AgentID: "mid", Type: event.TypeAgentStarted})
	events, _ := j.Load(ctx, "mid")
	if events[0].Sequence != 1 {
		t.Errorf("Sequence after delete = %d, want restart at 1", events[0].Sequence)
	}
}

func TestJournal_Subscribe(t *testing.T) {
	t.Parallel()

	j := memory.NewJournal()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := j.Subscribe(ctx, "a")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	_ = j.Append(context.Background(),
		event.Event{AgentID: "b", Type: event.TypeAgentStarted},
		event.Event{AgentID: "a", Type: event.TypeAgentSuspended},
	)

	select {
	case e := <-ch:
		if e.Type != event.TypeAgentSuspended || e.Sequence != 1 {
			t.Errorf("received %s seq %d, want agent.suspended seq 1", e.Type, e.Sequence)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestJournal_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	j := memory.NewJournal()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = j.Append(ctx, event.Event{AgentID: "a", Type: event.TypeActionSucceeded})
		}()
	}
	wg.Wait()

	events, _ := j.Load(ctx, "a")
	if len(events) != 50 {
		t.Fatalf("Load() len = %d, want 50", len(events))
	}
	seen := make(map[uint64]bool)
	for _, e := range events {
		if seen[e.Sequence] {
			t.Fatalf("duplicate sequence %d", e.Sequence)
		}
		seen[e.Sequence] = true
	}
}
