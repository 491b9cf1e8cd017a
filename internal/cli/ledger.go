package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/peerly/peerly/internal/app"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/spf13/cobra"
)

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the SuperCoin balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Balance: %d SuperCoins\n", a.Ledger.Balance())
				return nil
			})
		},
	}
}

func newCreditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credit AMOUNT REASON",
		Short: "Earn SuperCoins",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransaction(cmd, args, entities.TransactionTypeEarned)
		},
	}
}

func newDebitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debit AMOUNT REASON",
		Short: "Spend SuperCoins",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransaction(cmd, args, entities.TransactionTypeSpent)
		},
	}
}

func runTransaction(cmd *cobra.Command, args []string, txType entities.TransactionType) error {
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		var tx *entities.Transaction
		if txType == entities.TransactionTypeEarned {
			tx, err = a.Ledger.Credit(ctx, amount, args[1])
		} else {
			tx, err = a.Ledger.Debit(ctx, amount, args[1])
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %d SuperCoins (%s). Balance: %d\n", tx.Type, tx.Amount, tx.ID, tx.BalanceAfter)
		return nil
	})
}

func newTransactionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				txs := a.Ledger.Transactions()
				if limit > 0 && len(txs) > limit {
					txs = txs[:limit]
				}
				if len(txs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No transactions")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tBALANCE\tWHEN\tREASON")
				for _, tx := range txs {
					fmt.Fprintf(w, "%s\t%s\t%+d\t%d\t%s\t%s\n", tx.ID, tx.Type, tx.Signed(), tx.BalanceAfter, tx.Timestamp.Local().Format(time.DateTime), tx.Reason)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many transactions")
	return cmd
}
