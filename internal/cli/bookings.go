package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/peerly/peerly/internal/app"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/services/booking"
	"github.com/spf13/cobra"
)

func newBookCmd() *cobra.Command {
	var req booking.Request

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book and pay for a tutoring session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				b, err := a.Checkout.Book(ctx, req)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Booked %s: %q with %s on %s at %s for %d SuperCoins. Balance: %d\n",
					b.ID, b.TopicTitle, b.TutorName, b.Date, b.Time, b.Cost, a.Ledger.Balance())
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&req.TopicID, "topic-id", 0, "Topic identifier")
	flags.StringVar(&req.TopicTitle, "topic", "", "Topic title")
	flags.StringVar(&req.TutorName, "tutor", "", "Tutor name")
	flags.StringVar(&req.Date, "date", "", "Session date (YYYY-MM-DD)")
	flags.StringVar(&req.Time, "time", "", "Session time (HH:MM)")
	flags.Int64Var(&req.Cost, "cost", 0, "Cost in SuperCoins")
	for _, name := range []string{"topic", "tutor", "date", "time"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newBookingsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter entities.BookingStatus
			if status != "" {
				parsed, err := entities.ParseBookingStatus(status)
				if err != nil {
					return err
				}
				filter = parsed
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				bookings := a.Bookings.List()
				if filter != "" {
					bookings = a.Bookings.ListByStatus(filter)
				}
				if len(bookings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No bookings")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTATUS\tDATE\tTIME\tCOST\tTOPIC\tTUTOR")
				for _, b := range bookings {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n", b.ID, b.Status, b.Date, b.Time, b.Cost, b.TopicTitle, b.TutorName)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show bookings in this status (upcoming, completed, cancelled)")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a booking completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				b, err := a.Checkout.Complete(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is %s\n", b.ID, b.Status)
				return nil
			})
		},
	}
}

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a booking and refund its cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				b, err := a.Checkout.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is %s. Balance: %d\n", b.ID, b.Status, a.Ledger.Balance())
				return nil
			})
		},
	}
}
