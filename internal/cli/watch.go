package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rickgao/auction-mirror/internal/config"
	"github.com/rickgao/auction-mirror/internal/feed"
	"github.com/rickgao/auction-mirror/internal/poller"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	URL  string
	JSON bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream cycle summaries from a running mirror",
		Long: `Connect to a running mirror's cycle feed and print each cycle summary
as it arrives. The feed URL defaults to the configured server port on
localhost.

Example:
  mirror watch
  mirror watch --url ws://mirror.internal:8080/ws/cycles --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()
			return runWatch(ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "feed URL (ws:// or wss://)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print raw JSON summaries")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, out io.Writer) error {
	url := opts.URL
	if url == "" {
		cfg, err := config.LoadAndValidate(opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		url = fmt.Sprintf("ws://localhost:%d/ws/cycles", cfg.Server.Port)
	}

	sub, err := feed.Dial(ctx, url, slog.Default())
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer sub.Close()

	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-sub.Summaries():
			if !ok {
				return sub.Err()
			}
			if opts.JSON {
				if err := enc.Encode(s); err != nil {
					return err
				}
				continue
			}
			printSummary(out, s)
		}
	}
}

func printSummary(out io.Writer, s poller.CycleSummary) {
	status := "ok"
	if !s.OK() {
		status = "failed: " + s.Error
	}
	fmt.Fprintf(out, "%s %-11s token=%d added=%d removed=%d anomalies=%d live=%d next=%s %s\n",
		s.StartedAt.Format("15:04:05"), s.Kind, s.Token, s.Added, s.Removed,
		s.Anomalies, s.LiveAuctions, s.NextSleep, status)
}
