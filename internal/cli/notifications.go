package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/peerly/peerly/internal/app"
	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show the notification feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				items := a.Feed.List()
				if unread {
					items = a.Feed.Unread()
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d unread\n", a.Feed.UnreadCount())
				for _, n := range items {
					mark := " "
					if !n.IsRead {
						mark = "*"
					}
					fmt.Fprintf(out, "%s %s  %s  %s\n    %s\n", mark, n.ID, n.Timestamp.Local().Format("2006-01-02 15:04"), n.Title, n.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "Only show unread notifications")
	return cmd
}

func newReadCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [ID]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass either a notification ID or --all")
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if all {
					if err := a.Feed.MarkAllRead(ctx); err != nil {
						return err
					}
				} else if err := a.Feed.MarkRead(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", a.Feed.UnreadCount())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification as read")
	return cmd
}
