package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/goap-go/domain/config"
	"github.com/felixgeelhaar/goap-go/infrastructure/inspector"
	"github.com/felixgeelhaar/goap-go/infrastructure/observability"
)

const combatScenario = "../../infrastructure/scenario/testdata/combat.yaml"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), err
}

func TestApp_Version(t *testing.T) {
	output, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(output, "goap version "+Version) {
		t.Errorf("version output missing 'goap version', got: %s", output)
	}
	if !strings.Contains(output, "Go: go") {
		t.Errorf("version output missing Go toolchain, got: %s", output)
	}
}

func TestApp_Help(t *testing.T) {
	output, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"goal-oriented agents", "validate", "plan", "simulate", "inspect"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_Validate(t *testing.T) {
	output, err := run(t, "validate", combatScenario)
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	for _, want := range []string{"Scenario is valid", "Name: combat", "mage (x1): 3 actions, 1 goals, 3 sensors", "Journal: memory"} {
		if !strings.Contains(output, want) {
			t.Errorf("validate output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	content := `
name: broken
agents:
  - memory: {ready: true}
`
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}

	if _, err := run(t, "validate", path); err == nil {
		t.Fatal("validate command should fail for invalid scenario")
	}
	if _, err := run(t, "validate"); err == nil {
		t.Fatal("validate command should require a path")
	}
}

func TestApp_Plan(t *testing.T) {
	output, err := run(t, "plan", combatScenario)
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	if !strings.Contains(output, "mage/KillTarget (priority 10): Approach -> CastDamageSpell") {
		t.Errorf("plan output missing plan, got: %s", output)
	}
}

func TestApp_PlanJSON(t *testing.T) {
	output, err := run(t, "plan", combatScenario, "--goal", "KillTarget", "--json")
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}

	var results []planResult
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("plan output is not JSON: %v\n%s", err, output)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	r := results[0]
	if !r.Found || r.Agent != "mage" || len(r.Actions) != 2 {
		t.Errorf("result = %+v, want a two-action plan for mage", r)
	}
	if r.Iterations == 0 {
		t.Error("Iterations = 0, want search stats")
	}
}

func TestApp_PlanUnknownGoal(t *testing.T) {
	if _, err := run(t, "plan", combatScenario, "--goal", "Sleep"); err == nil {
		t.Fatal("plan should fail for an unknown goal")
	}
}

func TestApp_Simulate(t *testing.T) {
	output, err := run(t, "simulate", combatScenario, "--ticks", "10", "--verbose")
	if err != nil {
		t.Fatalf("simulate command failed: %v", err)
	}
	for _, want := range []string{
		"combat, tick 10",
		"agent mage",
		"goal=KillTarget",
		"coordinator",
		"journal (memory)",
		"mage:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("simulate output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_SimulateFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"watch without realtime", []string{"--watch"}},
		{"unbounded virtual run", []string{"--ticks", "0"}},
		{"unknown journal", []string{"--journal", "tape"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"simulate", combatScenario}, tt.args...)
			if _, err := run(t, args...); err == nil {
				t.Errorf("simulate %v should fail", tt.args)
			}
		})
	}
}

func TestApp_GlobalLogFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), []string{"plan", combatScenario, "--log-level", "debug", "--log-format", "json"})
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	if app.logLevel != "debug" || app.logFormat != "json" {
		t.Errorf("log flags = %q/%q, want debug/json", app.logLevel, app.logFormat)
	}
	if !strings.Contains(stdout.String(), "mage/KillTarget") {
		t.Errorf("plan output missing mage, got: %s", stdout.String())
	}
}

func TestApp_SimulateNoJournal(t *testing.T) {
	output, err := run(t, "simulate", combatScenario, "--ticks", "3", "--journal", "none")
	if err != nil {
		t.Fatalf("simulate command failed: %v", err)
	}
	if strings.Contains(output, "journal (") {
		t.Errorf("journal section printed without a journal: %s", output)
	}
}

func TestApp_Inspect(t *testing.T) {
	output, err := run(t, "inspect", combatScenario)
	if err != nil {
		t.Fatalf("inspect command failed: %v", err)
	}
	for _, want := range []string{"combat, tick 0", "agent mage", "idle", "memory"} {
		if !strings.Contains(output, want) {
			t.Errorf("inspect output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_InspectJSON(t *testing.T) {
	output, err := run(t, "inspect", combatScenario, "--ticks", "1", "--format", "json", "--agent", "mage")
	if err != nil {
		t.Fatalf("inspect command failed: %v", err)
	}

	var report inspector.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("inspect output is not JSON: %v\n%s", err, output)
	}
	if report.Tick != 1 {
		t.Errorf("Tick = %d, want 1", report.Tick)
	}
	if len(report.Agents) != 1 || report.Agents[0].ID != "mage" {
		t.Fatalf("Agents = %+v, want mage", report.Agents)
	}
	if report.Agents[0].PlanRequests != 1 {
		t.Errorf("PlanRequests = %d, want 1", report.Agents[0].PlanRequests)
	}
	if report.Coordinator == nil || report.Coordinator.Requested != 1 {
		t.Errorf("Coordinator = %+v, want one request", report.Coordinator)
	}
}

func TestApp_InspectErrors(t *testing.T) {
	if _, err := run(t, "inspect", combatScenario, "--format", "xml"); !errors.Is(err, inspector.ErrUnknownFormat) {
		t.Errorf("inspect --format xml error = %v, want ErrUnknownFormat", err)
	}
	if _, err := run(t, "inspect", combatScenario, "--agent", "rogue"); err == nil {
		t.Error("inspect should fail for an unknown agent")
	}
}

func TestTelemetryOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  config.TelemetryConfig
		enabled bool
		want    observability.ExporterType
	}{
		{"noop", config.TelemetryConfig{Tracing: "noop"}, false, observability.ExporterNoop},
		{"stdout", config.TelemetryConfig{Tracing: "stdout", ServiceName: "sim"}, true, observability.ExporterStdout},
		{"otlp", config.TelemetryConfig{Tracing: "otlp", Endpoint: "localhost:4317", Insecure: true}, true, observability.ExporterOTLP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := observability.DefaultConfig()
			for _, opt := range telemetryOptions(tt.config, &bytes.Buffer{}) {
				opt(&cfg)
			}
			if cfg.Tracing.Enabled != tt.enabled {
				t.Errorf("Tracing.Enabled = %v, want %v", cfg.Tracing.Enabled, tt.enabled)
			}
			if cfg.Tracing.Exporter != tt.want {
				t.Errorf("Tracing.Exporter = %s, want %s", cfg.Tracing.Exporter, tt.want)
			}
			if cfg.ServiceVersion != Version {
				t.Errorf("ServiceVersion = %s, want %s", cfg.ServiceVersion, Version)
			}
		})
	}
}
