// Package cli implements the Citadel command-line interface using Cobra.
// Each subcommand maps to one engine capability (serve, status, events,
// config).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "citadel",
	Short: "Citadel — progression engine for the show companion app",
	Long: `Citadel tracks your progress through the multiverse.
Portal jumps, favorites, watched episodes, quizzes and map discoveries turn
into XP, levels, achievements and cosmetic unlocks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
