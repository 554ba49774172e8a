package scrape

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/auction-mirror/internal/api"
)

// ScanResult is the outcome of a listing scan.
type ScanResult struct {
	Auctions []api.Auction
	Pages    int   // Pages read
	Token    int64 // Cycle token the pages carried
	Stopped  bool  // NewAuctions reached a known bin listing
}

// FullScan reads every listing page. Page 0 adopts the cycle token; the
// rest are read in parallel and must match it. Entries are returned in
// page order.
func (f *Fetcher) FullScan(ctx context.Context, cycle *Cycle) (*ScanResult, error) {
	first, err := f.Page(ctx, cycle, 0, true)
	if err != nil {
		return nil, err
	}

	total := max(first.TotalPages, 1)
	pages := make([][]api.Auction, total)
	pages[0] = first.Auctions

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.ScanConcurrency)
	for n := 1; n < total; n++ {
		n := n
		g.Go(func() error {
			p, err := f.Page(gctx, cycle, n, false)
			if err != nil {
				return err
			}
			pages[n] = p.Auctions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	count := 0
	for _, p := range pages {
		count += len(p)
	}
	auctions := make([]api.Auction, 0, count)
	for _, p := range pages {
		auctions = append(auctions, p...)
	}

	f.logger.Debug("full scan complete",
		"pages", total,
		"auctions", len(auctions),
		"token", cycle.Token(),
	)

	return &ScanResult{Auctions: auctions, Pages: total, Token: cycle.Token()}, nil
}

// NewAuctions walks listing pages from the front and collects entries the
// index does not know yet.
//
// New bin listings are prepended upstream while bid auctions keep their
// position, so the walk ends at the first known bin listing. Known bid
// auctions are passed over. Without such a stop point the walk ends at the
// last page (or MaxNewPages).
func (f *Fetcher) NewAuctions(ctx context.Context, cycle *Cycle, known func(auctionID string) bool) (*ScanResult, error) {
	res := &ScanResult{}
	seen := make(map[string]struct{})

	for n := 0; ; n++ {
		p, err := f.Page(ctx, cycle, n, n == 0)
		if err != nil {
			return nil, err
		}
		res.Pages++

		for _, a := range p.Auctions {
			if known(a.UUID) {
				if a.Bin {
					res.Stopped = true
					res.Token = cycle.Token()
					return res, nil
				}
				continue
			}
			if _, dup := seen[a.UUID]; dup {
				continue
			}
			seen[a.UUID] = struct{}{}
			res.Auctions = append(res.Auctions, a)
		}

		last := p.TotalPages
		if f.cfg.MaxNewPages > 0 && f.cfg.MaxNewPages < last {
			last = f.cfg.MaxNewPages
		}
		if n+1 >= last {
			break
		}
	}

	res.Token = cycle.Token()
	return res, nil
}

// EndedAuctions reads the ended feed, adopting the cycle token, and
// returns the ended auction ids.
func (f *Fetcher) EndedAuctions(ctx context.Context, cycle *Cycle) ([]string, error) {
	resp, err := f.Ended(ctx, cycle)
	if err != nil {
		return nil, err
	}
	return api.EndedIDs(resp), nil
}
