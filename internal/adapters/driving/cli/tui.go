package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui"
)

// errNotATerminal is returned when the TUI is started without a terminal.
var errNotATerminal = errors.New("the dashboard needs an interactive terminal; use 'docflow list' instead")

// isTerminal reports whether stdout is a terminal. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive jobs dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard lists every job with a progress bar and refreshes as the
background polls report progress.

Controls:
  u        - Upload a file or directory
  enter    - View extracted text
  r        - Refresh from the service
  d / D    - Delete selected / delete all
  s        - Settings
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if jobService == nil {
		return errors.New("job service not configured")
	}
	if !isTerminal() {
		return errNotATerminal
	}

	app, err := tui.NewApp(tui.NewPorts(jobService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
