package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/peerly/peerly/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run reminders, the Discord relay, the indexer and the ops server",
		Long: `serve runs until interrupted. Session reminders always run; the
Discord relay, the Elasticsearch indexer and the /health and /metrics
endpoints start when DISCORD_TOKEN, ELASTICSEARCH_URL and METRICS_ADDR
are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.Serve(ctx)
			})
		},
	}
}
