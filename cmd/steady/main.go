package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/steady/internal/config"
	"github.com/dukerupert/steady/internal/logging"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the steady command tree.
func NewRootCmd() *cobra.Command {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "steady",
		Short:         "Steady recovery tracking server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newMigrateCmd(cfg))
	root.AddCommand(newAnalyticsCmd(cfg))
	root.AddCommand(newVAPIDKeysCmd())
	return root
}
