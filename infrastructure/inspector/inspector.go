// Package inspector renders agent snapshots for debugging: aligned text for
// terminals, JSON for tooling, and Mermaid or DOT lifecycle diagrams.
package inspector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/felixgeelhaar/goap-go/application"
	"github.com/felixgeelhaar/goap-go/infrastructure/coordinator"
)

// Format selects the output encoding.
type Format string

// Supported formats.
const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("inspector: unknown format")

// ParseFormat converts a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatMermaid, FormatDOT:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Report is everything one inspection prints.
type Report struct {
	Scenario    string                 `json:"scenario,omitempty"`
	Tick        uint64                 `json:"tick"`
	At          time.Time              `json:"at"`
	Agents      []application.Snapshot `json:"agents"`
	Coordinator *coordinator.Metrics   `json:"coordinator,omitempty"`
}

// Collect snapshots agents into a report.
func Collect(tick uint64, at time.Time, agents ...*application.Agent) Report {
	r := Report{Tick: tick, At: at}
	for _, a := range agents {
		r.Agents = append(r.Agents, a.Snapshot())
	}
	return r
}

// Render writes r to w in format f.
func Render(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatText, "":
		return renderText(w, r)
	case FormatMermaid:
		return renderMermaid(w, r)
	case FormatDOT:
		return renderDOT(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func renderText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := "tick " + humanize.Comma(int64(r.Tick)) // #nosec G115 -- tick counts stay far below MaxInt64
	if r.Scenario != "" {
		header = r.Scenario + ", " + header
	}
	fmt.Fprintln(tw, header)

	for _, s := range r.Agents {
		renderAgent(tw, s, r.At)
	}

	if m := r.Coordinator; m != nil {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "coordinator")
		fmt.Fprintf(tw, "  requested\t%s\n", humanize.Comma(m.Requested))
		fmt.Fprintf(tw, "  completed\t%s\n", humanize.Comma(m.Completed))
		fmt.Fprintf(tw, "  failed\t%s\n", humanize.Comma(m.Failed))
		fmt.Fprintf(tw, "  superseded\t%s\n", humanize.Comma(m.Superseded))
		fmt.Fprintf(tw, "  dropped\t%s\n", humanize.Comma(m.Dropped))
		fmt.Fprintf(tw, "  rejected\t%s\n", humanize.Comma(m.Rejected))
		fmt.Fprintf(tw, "  queued\t%s\n", humanize.Comma(int64(m.QueueDepth)))
		fmt.Fprintf(tw, "  success rate\t%s%%\n", humanize.FtoaWithDigits(m.SuccessRate()*100, 1))
		fmt.Fprintf(tw, "  avg search\t%s\n", m.AverageSearchDuration())
	}
	return tw.Flush()
}

func renderAgent(tw *tabwriter.Writer, s application.Snapshot, at time.Time) {
	status := "enabled"
	if !s.Enabled {
		status = "disabled"
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "agent %s\t%s\t%s\n", s.ID, s.State, status)
	fmt.Fprintf(tw, "  ticks\t%s\n", humanize.Comma(int64(s.Ticks)))               // #nosec G115 -- see renderText
	fmt.Fprintf(tw, "  plan requests\t%s\n", humanize.Comma(int64(s.PlanRequests))) // #nosec G115 -- see renderText
	if s.Suspensions > 0 {
		fmt.Fprintf(tw, "  suspensions\t%d\n", s.Suspensions)
	}
	if !s.SuspendedUntil.IsZero() {
		fmt.Fprintf(tw, "  resumes\t%s\n", humanize.RelTime(s.SuspendedUntil, at, "ago", "from now"))
	}
	if s.Err != "" {
		fmt.Fprintf(tw, "  error\t%s\n", s.Err)
	}
	if s.Goal != "" {
		fmt.Fprintf(tw, "  goal\t%s\n", s.Goal)
	}
	if s.Action != "" {
		fmt.Fprintf(tw, "  action\t%s\n", s.Action)
	}
	if len(s.Plan) > 0 {
		fmt.Fprintf(tw, "  plan\t%s (cost %s)\n", strings.Join(s.Plan, " -> "), humanize.Ftoa(s.PlanCost))
	}

	if len(s.Memory) > 0 {
		fmt.Fprintln(tw, "  memory")
		keys := make([]string, 0, len(s.Memory))
		for k := range s.Memory {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "    %s\t%s\n", k, formatValue(s.Memory[k]))
		}
	}

	if len(s.Goals) > 0 {
		fmt.Fprintln(tw, "  goals")
		for _, g := range s.Goals {
			met := "unmet"
			if g.Satisfied {
				met = "met"
			}
			fmt.Fprintf(tw, "    %s\tpriority %s\t%s\n", g.Name, humanize.Ftoa(g.Priority), met)
		}
	}

	if len(s.Actions) > 0 {
		fmt.Fprintln(tw, "  actions")
		for _, a := range s.Actions {
			flags := ""
			if a.Interruptible {
				flags = "interruptible"
			}
			fmt.Fprintf(tw, "    %s\tfailures %d\t%s\n", a.Name, a.Failures, flags)
		}
	}

	if len(s.Sensors) > 0 {
		fmt.Fprintln(tw, "  sensors")
		for _, sensor := range s.Sensors {
			fmt.Fprintf(tw, "    %s\t%s\n", sensor.Name, sensor.Breaker)
		}
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case float64:
		return humanize.FtoaWithDigits(t, 3)
	case int64:
		return humanize.Comma(t)
	default:
		return fmt.Sprint(v)
	}
}
