package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
	"github.com/felixgeelhaar/goap-go/infrastructure/coordinator"
	"github.com/felixgeelhaar/goap-go/infrastructure/logging"
)

func TestMain(m *testing.M) {
	logging.Discard()
	os.Exit(m.Run())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"mermaid", FormatMermaid, false},
		{"dot", FormatDOT, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
		}
	}
}

func testAgent(t *testing.T) *application.Agent {
	t.Helper()
	a, err := application.New("scout",
		application.WithMemory(worldstate.New().
			With("fuel", worldstate.Float(12.5)).
			With("distance", worldstate.Int(12000))),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = a.AddSensor(goap.NewSensor("radar", func(goap.Agent) error { return nil }))
	_ = a.AddAction(goap.NewAction("Travel",
		goap.WithEffects(worldstate.New().With("distance", worldstate.Int(0))),
		goap.WithRun(func(goap.Agent) goap.Result { return goap.Running }),
		goap.Interruptible(),
	))
	_ = a.AddGoal(goap.NewGoal("Arrive", worldstate.New().With("distance", worldstate.Int(0)), goap.WithPriority(3)))
	return a
}

func TestRender_Text(t *testing.T) {
	t.Parallel()

	a := testAgent(t)
	ctx := context.Background()
	_ = a.Tick(ctx)
	_ = a.Tick(ctx)

	r := Collect(2, time.Now(), a)
	r.Scenario = "convoy"
	r.Coordinator = &coordinator.Metrics{Requested: 1200, Completed: 3, Failed: 1}

	var buf bytes.Buffer
	if err := Render(&buf, r, FormatText); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"convoy, tick 2",
		"agent scout",
		"executing",
		"action",
		"Travel",
		"12,000",
		"12.5",
		"priority 3",
		"unmet",
		"interruptible",
		"radar",
		"1,200",
		"75%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	a := testAgent(t)
	_ = a.Tick(context.Background())

	var buf bytes.Buffer
	if err := Render(&buf, Collect(1, time.Now(), a), FormatJSON); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var decoded struct {
		Tick   uint64 `json:"tick"`
		Agents []struct {
			ID    string         `json:"id"`
			State string         `json:"state"`
			Goal  string         `json:"goal"`
			Mem   map[string]any `json:"memory"`
		} `json:"agents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v\n%s", err, buf.String())
	}
	if decoded.Tick != 1 || len(decoded.Agents) != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}
	got := decoded.Agents[0]
	if got.ID != "scout" || got.State != "planning" || got.Goal != "Arrive" {
		t.Errorf("agent = %+v", got)
	}
	if got.Mem["fuel"] != 12.5 {
		t.Errorf("memory fuel = %v, want 12.5", got.Mem["fuel"])
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	if err := Render(&bytes.Buffer{}, Report{}, Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Render(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestRender_Diagrams(t *testing.T) {
	t.Parallel()

	a := testAgent(t)
	ctx := context.Background()
	_ = a.Tick(ctx)
	_ = a.Tick(ctx)
	r := Collect(2, time.Now(), a)

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatMermaid, []string{
			"stateDiagram-v2",
			"[*] --> idle",
			"idle --> planning: 1",
			"planning --> executing: 1",
			"suspended --> idle\n",
			"disabled --> [*]",
			"note right of executing: 1 agent(s)",
		}},
		{FormatDOT, []string{
			"digraph AgentLifecycle {",
			`executing [label="executing (1)", style="rounded,filled", fillcolor=lightyellow];`,
			`disabled [label="disabled", style="rounded,filled", fillcolor=lightcoral];`,
			`idle -> planning [label="1", penwidth=1];`,
			"suspended -> idle [style=dashed];",
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := Render(&buf, r, tt.format); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}
