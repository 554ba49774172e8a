package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/auction-mirror/internal/api"
	"github.com/rickgao/auction-mirror/internal/config"
)

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Print upstream freshness tokens",
		Long: `Fetch page 0 of the listings and the ended feed once and print their
freshness tokens, page counts, and ages. Useful for checking connectivity
and the upstream rebuild cadence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runProbe(ctx, rootOpts, cmd.OutOrStdout(), time.Now)
		},
	}
}

func runProbe(ctx context.Context, opts *RootOptions, out io.Writer, now func() time.Time) error {
	cfg, err := config.LoadAndValidate(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := newClient(cfg, nil, slog.Default())

	page, err := client.GetAuctionsPage(ctx, 0)
	if err != nil {
		return fmt.Errorf("fetch page 0: %w", err)
	}
	ended, err := client.GetEndedAuctions(ctx)
	if err != nil {
		return fmt.Errorf("fetch ended feed: %w", err)
	}

	t := now()
	fmt.Fprintf(out, "auctions: token %d age %s pages %d total %d\n",
		page.LastUpdated, age(page.LastUpdated, t), page.TotalPages, page.TotalAuctions)
	fmt.Fprintf(out, "ended:    token %d age %s entries %d\n",
		ended.LastUpdated, age(ended.LastUpdated, t), len(ended.Auctions))
	if page.LastUpdated != ended.LastUpdated {
		fmt.Fprintf(out, "feeds differ by %s\n", time.Duration(page.LastUpdated-ended.LastUpdated)*time.Millisecond)
	}
	return nil
}

func age(token int64, now time.Time) time.Duration {
	return now.Sub(api.MillisToTime(token)).Truncate(time.Millisecond)
}
