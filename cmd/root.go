package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command for the calslack application
var rootCmd = &cobra.Command{
	Use:   "calslack",
	Short: "MCP server for Google Calendar and Slack",
	Long: `calslack exposes Google Calendar and Slack as MCP (Model Context Protocol)
tools so AI assistants can manage events, including scoped changes to
recurring series, and read or post Slack messages.

Configuration is read from an optional YAML file (--config), CALSLACK_*
environment variables and command line flags, in increasing precedence.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calslack version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML configuration file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
