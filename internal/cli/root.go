// Package cli implements the peerly command line.
package cli

import (
	"context"
	"fmt"

	"github.com/peerly/peerly/internal/app"
	"github.com/peerly/peerly/internal/config"
	"github.com/peerly/peerly/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the peerly command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "peerly",
		Short: "SuperCoin ledger and tutoring session bookings",
		Long: `peerly keeps a SuperCoin balance with its transaction history, the
tutoring sessions booked with it and the resulting notification feed.
State is persisted in the store selected by STORAGE_DRIVER.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newBalanceCmd(),
		newCreditCmd(),
		newDebitCmd(),
		newTransactionsCmd(),
		newBookCmd(),
		newBookingsCmd(),
		newCompleteCmd(),
		newCancelCmd(),
		newNotificationsCmd(),
		newReadCmd(),
		newMigrateCmd(),
		newServeCmd(),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// withApp loads the configuration, opens the application for the
// duration of fn and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Error closing storage: %v", err)
		}
	}()

	return fn(ctx, a)
}
