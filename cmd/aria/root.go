package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	portFlag   int
)

var rootCmd = &cobra.Command{
	Use:   "aria",
	Short: "Aria - AI goal planner backend",
	Long: `Aria turns a goal into clarifying questions, a phased strategy and
short coaching replies, relaying prompts to a generative-language API.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "Listen port (overrides config and PORT)")
}

func Execute() error {
	return rootCmd.Execute()
}
