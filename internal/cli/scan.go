package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rickgao/auction-mirror/internal/config"
	"github.com/rickgao/auction-mirror/internal/index"
	"github.com/rickgao/auction-mirror/internal/poller"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	DumpDir string
	Top     int
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one full scan and print a summary",
		Long: `Run a single full scan of the upstream listings, build the index,
and print what was found. With --dump the index, attribute catalog, and
item table are written as JSON for inspection.

Example:
  mirror scan
  mirror scan --dump ./samples --top 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.DumpDir, "dump", "", "write index dump files to this directory")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "number of most listed items to print")

	return cmd
}

func runScan(ctx context.Context, opts *ScanOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadAndValidate(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := slog.Default()

	client := newClient(cfg, nil, logger)
	store := index.NewStore()

	ctrlCfg := controllerConfig(cfg)
	if opts.DumpDir != "" {
		ctrlCfg.DumpDir = opts.DumpDir
	}
	ctrl := poller.New(ctrlCfg, newFetcher(cfg, client, nil, logger), client, store,
		poller.WithLogger(logger),
	)

	summary, err := ctrl.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("full scan: %w", err)
	}

	printScan(out, summary, store, opts.Top)
	return nil
}

func printScan(out io.Writer, s poller.CycleSummary, store *index.Store, top int) {
	stats := store.Stats()
	fmt.Fprintf(out, "token:            %d (%s)\n", s.Token, stats.PublishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "pages:            %d\n", s.Pages)
	fmt.Fprintf(out, "auctions:         %d\n", stats.Auctions)
	fmt.Fprintf(out, "items:            %d\n", stats.Items)
	fmt.Fprintf(out, "catalog keys:     %d\n", stats.CatalogKeys)
	fmt.Fprintf(out, "decode failures:  %d\n", s.DecodeFailures)
	fmt.Fprintf(out, "duration:         %s\n", s.Duration)

	if top <= 0 {
		return
	}
	ranked := store.TopItems(top)
	if len(ranked) == 0 {
		return
	}
	fmt.Fprintln(out, "\nmost listed:")
	for _, it := range ranked {
		fmt.Fprintf(out, "  %-32s %6d\n", store.ItemName(it.ItemID), it.Auctions)
	}
}
