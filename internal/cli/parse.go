package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"barbercal/internal/ics"
	"barbercal/internal/model"
)

var (
	parseJSON   bool
	parseRepeat string
	parseLimit  int
)

var parseCmd = &cobra.Command{
	Use:   "parse [INPUT]",
	Short: "Print the appointments found in pasted text",
	Long: `Parse booking text and print every appointment found in it.

INPUT is a file path, "-" for stdin (the default), "clipboard:" or an
http(s) URL. With --repeat the upcoming dates of the rule are listed under
each appointment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print appointments as JSON")
	parseCmd.Flags().StringVar(&parseRepeat, "repeat", "", "RRULE to preview, e.g. FREQ=WEEKLY;INTERVAL=4;COUNT=6")
	parseCmd.Flags().IntVar(&parseLimit, "limit", ics.DefaultOccurrenceLimit, "maximum repeat dates listed per appointment")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if err := ics.ValidateRule(parseRepeat); err != nil {
		return err
	}

	appts, err := parseInput(cmd, args)
	if err != nil {
		return err
	}

	if parseJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(appts)
	}

	w := cmd.OutOrStdout()
	for i, appt := range appts {
		printAppointment(w, i, appt)
		if parseRepeat == "" {
			continue
		}
		occ, err := ics.Occurrences(appt, parseRepeat, parseLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "   Repeats:")
		for _, o := range occ {
			fmt.Fprintf(w, "     - %s\n", o.Start.Format("Mon 2 Jan 2006 15:04"))
		}
	}
	return nil
}

// printAppointment writes one appointment as a short card.
func printAppointment(w io.Writer, i int, appt model.Appointment) {
	fmt.Fprintf(w, "%d. %s  %s-%s  [%s]\n",
		i+1,
		appt.Start.Format("Monday, 2 January 2006"),
		appt.Start.Format("15:04"),
		appt.End.Format("15:04"),
		appt.Format,
	)
	fmt.Fprintf(w, "   %s\n", appt.Title)
	fmt.Fprintf(w, "   Location: %s\n", appt.Location)
	if appt.Price != "" {
		fmt.Fprintf(w, "   Price: %s\n", appt.Price)
	}
}
