package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/primus/primacron/cmd/primacron/commands"
	"github.com/primus/primacron/logger"
	"github.com/primus/primacron/version"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "primacron",
	Short: "primacron — a horizontally-scalable realtime messaging gateway",
	Long: `primacron is a cluster-aware realtime messaging gateway: it accepts
long-lived client connections, validates every inbound application message
before delivery, and routes messages to any client in the cluster regardless
of which node that client is attached to.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		return logger.Initialize(jsonLogs, verbosity)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Get().String())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase output verbosity (repeat for more detail)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of the console format")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
