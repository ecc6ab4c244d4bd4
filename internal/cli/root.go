// Package cli implements the barbercal command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"barbercal/internal/config"
	"barbercal/internal/ics"
	appLog "barbercal/internal/log"
	"barbercal/internal/model"
	"barbercal/internal/parser"
	"barbercal/internal/source"
)

// skipConfig marks commands that run without loading the config file.
const skipConfig = "barbercal/skip-config"

var (
	version = "dev"

	configPath string
	verbose    bool

	// cfg is loaded before any command that needs it runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "barbercal",
	Short: "Turn pasted barber bookings into calendar files",
	Long: `barbercal reads booking confirmations pasted from a barber shop's
website or app and turns every appointment in them into an iCalendar
(.ics) event.

Input can come from a file, stdin ("-"), the clipboard ("clipboard:") or
an http(s) URL.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if _, ok := cmd.Annotations[skipConfig]; ok {
		return nil
	}

	appLog.SetOutput(cmd.ErrOrStderr())

	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := appLog.ParseLevel(c.LogLevel)
	if verbose {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	appLog.Debug("config loaded",
		"path", configPath,
		"timezone", c.Timezone,
		"output_dir", c.OutputDir,
		"repeat", c.Repeat,
	)
	cfg = c
	return nil
}

// statusError reports a failed parse pass by its user-facing status line.
type statusError struct {
	err error
}

func (e *statusError) Error() string { return parser.StatusMessage(e.err) }

func (e *statusError) Unwrap() error { return e.err }

// newParser builds a parser for the loaded config.
func newParser() (*parser.Parser, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return parser.New(parser.Options{Location: loc, ShopName: cfg.ShopName}), nil
}

// newFormatter builds a formatter for the loaded config. A non-empty repeat
// overrides the configured rule.
func newFormatter(repeat string) (*ics.Formatter, error) {
	if repeat == "" {
		repeat = cfg.Repeat
	}
	if err := ics.ValidateRule(repeat); err != nil {
		return nil, err
	}
	return &ics.Formatter{
		ProductID: cfg.ProductID,
		UIDDomain: cfg.UIDDomain,
		Repeat:    repeat,
	}, nil
}

// inputArg returns the INPUT argument, defaulting to stdin.
func inputArg(args []string) string {
	if len(args) == 0 {
		return source.Stdin
	}
	return args[0]
}

// readInput loads the text named by args[0] (or stdin).
func readInput(cmd *cobra.Command, args []string) (source.Input, error) {
	r := source.NewReader(cfg.CacheDir)
	r.Stdin = cmd.InOrStdin()
	return r.Read(cmd.Context(), inputArg(args))
}

// parseInput reads and parses the INPUT argument. A failed pass is returned
// as a *statusError.
func parseInput(cmd *cobra.Command, args []string) ([]model.Appointment, error) {
	p, err := newParser()
	if err != nil {
		return nil, err
	}
	in, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}

	appts, err := p.Parse(in.Text)
	if err != nil {
		appLog.Debug("parse failed", "input", in.Name, "err", err)
		return nil, &statusError{err: err}
	}
	appLog.Debug("parse completed", "input", in.Name, "appointments", len(appts))
	return appts, nil
}
