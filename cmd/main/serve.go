package main

import (
	"chatcore/internal/pkg/app"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to chat and serve the admin API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, app.Options{ConfigPath: configPath})
	if err != nil {
		return err
	}
	defer a.Close()

	a.Log().Info("Chatbot started")
	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	a.Log().Info("Chatbot stopped")
	return nil
}
