package cli

import (
	"fmt"

	"github.com/peerly/peerly/internal/config"
	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/pkg/storage/sqlite"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the SQLite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverSQLite {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to migrate for %s storage\n", cfg.StorageDriver)
				return nil
			}

			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}

			applied, err := sqlite.Migrate(cmd.Context(), cfg.StoragePath, logging.New(cmd.ErrOrStderr(), level))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations to %s\n", applied, cfg.StoragePath)
			return nil
		},
	}
}
