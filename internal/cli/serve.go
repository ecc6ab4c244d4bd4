package cli

import (
	"github.com/spf13/cobra"

	"barbercal/internal/metrics"
	"barbercal/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paste-and-download web UI",
	Long: `Start an HTTP server with a single-page UI for pasting bookings and
downloading calendar files, plus a JSON API and /metrics.

Basic auth is enabled when basic_auth is set in the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveListen != "" {
		cfg.Listen = serveListen
	}
	return web.StartServer(cmd.Context(), cfg, metrics.New())
}
