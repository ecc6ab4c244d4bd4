package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"barbercal/internal/deliver"
)

var openIndex int

// openFile and openDir are replaced in tests.
var (
	openFile = func(path string) error { return deliver.Opener{}.Open(path) }
	openDir  = filepath.Join(os.TempDir(), "barbercal")
)

var openCmd = &cobra.Command{
	Use:   "open [INPUT]",
	Short: "Open an appointment in the default calendar application",
	Long: `Parse booking text, write the selected appointment to a temporary
.ics file and hand it to the system's default calendar application.

--index selects the appointment (0 is the first); -1 opens all of them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().IntVarP(&openIndex, "index", "i", 0, "appointment to open, -1 for all")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	f, err := newFormatter("")
	if err != nil {
		return err
	}
	appts, err := parseInput(cmd, args)
	if err != nil {
		return err
	}

	if openIndex < -1 || openIndex >= len(appts) {
		return fmt.Errorf("index %d out of range: %d appointment(s) found", openIndex, len(appts))
	}

	docs := f.FormatAll(appts)
	for i, doc := range docs {
		if openIndex != -1 && i != openIndex {
			continue
		}
		path, err := deliver.Save(openDir, deliver.FileName(cfg.FilePrefix, appts[i]), doc)
		if err != nil {
			return err
		}
		if err := openFile(path); err != nil {
			return err
		}
		cmd.Printf("Opened %s\n", path)
	}
	return nil
}
