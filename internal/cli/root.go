// Package cli implements the switcherd commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/config"
)

var apiAddr string

var rootCmd = &cobra.Command{
	Use:   "switcherd",
	Short: "Track running and hibernated applications for the task switcher",
	Long: `switcherd follows the window manager's client list and keeps the
task switcher's model of running, hibernating and urgent applications.
It terminates background applications under memory pressure and brings
hibernated ones back on activation.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cfg := config.LoadOrDefault()
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", cfg.Server.Addr(), "address of the daemon's HTTP API")

	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(versionCmd)
}
