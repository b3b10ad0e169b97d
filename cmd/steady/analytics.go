package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/steady/internal/config"
	"github.com/dukerupert/steady/internal/database"
	"github.com/dukerupert/steady/internal/store"
)

func newAnalyticsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Manage per-account analytics records",
	}
	cmd.AddCommand(newProvisionCmd(cfg))
	return cmd
}

func newProvisionCmd(cfg *config.Config) *cobra.Command {
	var accountID int64

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the zeroed analytics record for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID <= 0 {
				return errors.New("--account is required")
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			account, err := store.NewAccountStore(db).GetByID(ctx, accountID)
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("account %d not found", accountID)
			}

			rec, err := store.NewAnalyticsStore(db).Provision(ctx, accountID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 0, "account id")
	return cmd
}
