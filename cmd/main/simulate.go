package main

import (
	"chatcore/internal/app/adapters/http/handlers"
	"chatcore/internal/app/domain/message"
	"chatcore/internal/pkg/app"
	"chatcore/pkg/logger"
	"encoding/json"
	"github.com/spf13/cobra"
	"os"
	"strings"
)

var simulateFlags struct {
	user   string
	userID string
	badges []string
	action bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <message>",
	Short: "Run one message through the pipeline without sending anything to chat",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simulateFlags.user, "user", "u", "viewer", "sender login")
	f.StringVar(&simulateFlags.userID, "user-id", "", "sender id (defaults to login)")
	f.StringSliceVarP(&simulateFlags.badges, "badges", "b", nil, "broadcaster,moderator,subscriber,vip")
	f.BoolVar(&simulateFlags.action, "action", false, "send as /me")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := logger.New(logger.WithoutFile(), logger.WithWriter(os.Stderr))
	log.SetLogLevel("warn")

	a, err := app.New(cmd.Context(), app.Options{ConfigPath: configPath, Offline: true, Logger: log})
	if err != nil {
		return err
	}
	defer a.Close()

	id := simulateFlags.userID
	if id == "" {
		id = simulateFlags.user
	}

	msg := message.New(message.Sender{
		UserID:   id,
		Username: strings.ToLower(simulateFlags.user),
		Badges:   handlers.ParseBadges(simulateFlags.badges),
	}, strings.Join(args, " "))
	msg.IsAction = simulateFlags.action

	res, err := a.Simulate(cmd.Context(), msg)
	if res == nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		return encErr
	}
	return err
}
