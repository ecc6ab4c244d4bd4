package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"barbercal/internal/ics"
	"barbercal/internal/source"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE.ics",
	Short: "Read back the events in an .ics file",
	Long: `Read one or more concatenated iCalendar documents and print the
events they contain. FILE may also be "-", "clipboard:" or an http(s) URL.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	r := source.NewReader(cfg.CacheDir)
	r.Stdin = cmd.InOrStdin()
	in, err := r.Read(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	events, err := ics.ParseICS([]byte(in.Text), loc)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events in %s", in.Name)
	}

	w := cmd.OutOrStdout()
	for i, ev := range events {
		fmt.Fprintf(w, "%d. %s\n", i+1, ev.Title)
		fmt.Fprintf(w, "   UID:      %s\n", ev.UID)
		fmt.Fprintf(w, "   Start:    %s\n", ev.Start.Format("Monday, 2 January 2006 15:04"))
		fmt.Fprintf(w, "   End:      %s\n", ev.End.Format("Monday, 2 January 2006 15:04"))
		fmt.Fprintf(w, "   Location: %s\n", ev.Location)
		if ev.RRule != "" {
			fmt.Fprintf(w, "   Repeats:  %s\n", ev.RRule)
		}
	}
	return nil
}
