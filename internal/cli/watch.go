package cli

import (
	"github.com/spf13/cobra"

	"barbercal/internal/metrics"
	"barbercal/internal/watch"
)

var (
	watchInbox string
	watchOut   string
	watchOnce  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert pasted files as they appear in an inbox directory",
	Long: `Watch the inbox directory and convert every *.txt file written to it
into .ics files under the out directory, one subdirectory per input.
The inbox and the URLs listed under watch.urls are also swept on the
watch.sweep cron schedule.

Each conversion replaces that input's previous files.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "inbox directory (default from config)")
	watchCmd.Flags().StringVar(&watchOut, "out", "", "output directory (default from config)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "sweep once and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchInbox != "" {
		cfg.Watch.Inbox = watchInbox
	}
	if watchOut != "" {
		cfg.Watch.Out = watchOut
	}

	w, err := watch.New(cfg, metrics.New())
	if err != nil {
		return err
	}

	if watchOnce {
		for _, res := range w.Sweep(cmd.Context()) {
			cmd.Printf("%s: %d file(s)\n", res.Input, len(res.Written))
		}
		return nil
	}
	return w.Run(cmd.Context())
}
