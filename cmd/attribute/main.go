// Command attribute runs speaker attribution offline and manages the schema.
//
// Usage:
//
//	attribute run --input meeting.yaml --format report
//	attribute migrate up
//	attribute migrate down --steps 1
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "attribute",
	Short: "Map diarization labels to meeting participants",
	Long: `attribute reconciles anonymous diarization labels (A, B, C...) with the
participant roster of a meeting and renders the corrected transcript.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine decisions")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
