package scrape

import (
	"errors"
	"fmt"
)

var errNoToken = errors.New("no cycle token fixed before a non-adopting read")

// StaleCycleError is returned when a page carries a token newer than the
// cycle's. Upstream rebuilt mid-cycle; the cycle must be abandoned.
type StaleCycleError struct {
	Endpoint string
	Page     int
	Token    int64 // Token fixed for the cycle
	Observed int64 // Token carried by the page
}

func (e *StaleCycleError) Error() string {
	return fmt.Sprintf("%s page %d is newer than cycle token (%d > %d)", e.Endpoint, e.Page, e.Observed, e.Token)
}

// LaggingPageError is returned when a page stays behind the cycle token
// for every allowed retry.
type LaggingPageError struct {
	Endpoint string
	Page     int
	Want     int64 // Token the page had to reach (or pass, when adopting)
	Observed int64
	Attempts int
}

func (e *LaggingPageError) Error() string {
	return fmt.Sprintf("%s page %d still at token %d after %d attempts (want %d)",
		e.Endpoint, e.Page, e.Observed, e.Attempts, e.Want)
}
