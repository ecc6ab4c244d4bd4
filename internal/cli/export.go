package cli

import (
	"io"

	"github.com/spf13/cobra"

	"barbercal/internal/deliver"
)

var (
	exportOut    string
	exportStdout bool
	exportRepeat string
)

var exportCmd = &cobra.Command{
	Use:   "export [INPUT]",
	Short: "Write one .ics file per appointment",
	Long: `Parse booking text and write every appointment to its own
<prefix>_<YYYY-MM-DD>.ics file. Existing files are never overwritten; a
_2, _3, ... suffix is added instead.

With --stdout the documents are printed instead of saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (default from config)")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "print the documents instead of saving them")
	exportCmd.Flags().StringVar(&exportRepeat, "repeat", "", "RRULE attached to every event (overrides config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(exportRepeat)
	if err != nil {
		return err
	}
	appts, err := parseInput(cmd, args)
	if err != nil {
		return err
	}

	docs := f.FormatAll(appts)
	if exportStdout {
		w := cmd.OutOrStdout()
		for _, doc := range docs {
			if _, err := io.WriteString(w, doc); err != nil {
				return err
			}
		}
		return nil
	}

	dir := exportOut
	if dir == "" {
		dir = cfg.OutputDir
	}
	for i, doc := range docs {
		path, err := deliver.Save(dir, deliver.FileName(cfg.FilePrefix, appts[i]), doc)
		if err != nil {
			return err
		}
		cmd.Printf("Saved %s\n", path)
	}
	return nil
}
