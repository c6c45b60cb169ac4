// Package cli provides the command-line interface for goap-go.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	goapgo "github.com/felixgeelhaar/goap-go"
)

// Version information set at build time.
var (
	Version   = goapgo.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App is the goap command tree. Log settings are persistent flags that
// override every scenario's logging section.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	logLevel  string
	logFormat string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "goap",
		Short: "Goal-oriented action planning for Go",
		Long: `goap runs goal-oriented agents described in scenario files.

Agents sense their world, pick the most valuable unsatisfied goal, ask a
shared A* planner for the cheapest action sequence and execute it one
action per tick, replanning when the world changes underneath them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := app.root.PersistentFlags()
	flags.StringVar(&app.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error (overrides scenario)")
	flags.StringVar(&app.logFormat, "log-format", "", "Log format: json or console (overrides scenario)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newPlanCmd(),
		app.newSimulateCmd(),
		app.newInspectCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with args instead of os.Args.
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "goap version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
			fmt.Fprintf(a.stdout, "  Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
