package main

import (
	"chatcore/internal/pkg/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the SQL schema and seed default permission tiers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(cmd.Context(), app.Options{ConfigPath: configPath, Offline: true})
		if err != nil {
			return err
		}
		defer a.Close()

		a.Log().Info("Store is migrated")
		return nil
	},
}
