package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xrplwatch",
	Short: "xrplwatch - live XRP Ledger state-change monitor",
	Long: `xrplwatch subscribes to an XRPL node's ledger and transaction streams
and maintains, for each closing ledger, the deduplicated set of ledger
entries that were created, modified or deleted, grouped by entry type.
Closed-ledger snapshots are served to visualization clients over
WebSocket, with Prometheus metrics alongside.`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}
