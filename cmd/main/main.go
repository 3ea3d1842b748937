package main

import (
	"chatcore/internal/pkg/app"
	"fmt"
	"github.com/spf13/cobra"
	"os"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "chatcore",
	Short:         "Twitch chat bot: commands, cooldowns and moderation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", app.DefaultConfigPath, "path to config.json")
	rootCmd.AddCommand(serveCmd, migrateCmd, simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
