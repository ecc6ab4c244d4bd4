package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	appLog "barbercal/internal/log"
	"barbercal/internal/metrics"
	"barbercal/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI: paste booking text, parse it and
save, open or copy the resulting calendar files.

Controls:
  ctrl+p   - Parse the pasted text
  tab      - Switch between the text and the results
  ↑/↓      - Select a result
  ctrl+s   - Save the selected result
  ctrl+o   - Open the selected result in the calendar app
  ctrl+y   - Copy the selected result to the clipboard
  esc      - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	p, err := newParser()
	if err != nil {
		return err
	}
	f, err := newFormatter("")
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	appLog.SetOutput(io.Discard)
	defer appLog.SetOutput(cmd.ErrOrStderr())

	return tui.Run(cmd.Context(), tui.Deps{
		Parser:    p,
		Format:    f,
		OutputDir: cfg.OutputDir,
		Prefix:    cfg.FilePrefix,
		Metrics:   metrics.New(),
	})
}
