package cli

import (
	"github.com/spf13/cobra"

	"github.com/citadel-app/citadel/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Citadel API server",
	Long:  `Start the progression API server at localhost:8137.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}

	logger, err := daemon.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	d, err := daemon.NewWithConfig(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Serve(cmd.Context())
}
