// Package scrape reads consistent views of the paginated upstream.
//
// Upstream rebuilds its listing pages about once a minute and stamps every
// page with the rebuild time (lastUpdated, the freshness token). A Cycle
// fixes one token; the Fetcher only accepts pages carrying it, waits out
// pages that are still behind it, and fails the cycle when a page is
// already ahead of it.
//
// On top of the Fetcher, FullScan reads every page in parallel,
// NewAuctions walks pages from the front until it reaches a listing the
// index already holds, and EndedAuctions reads the ended feed.
package scrape
