package poller

import "time"

// NextSleep returns the wait until the upstream rebuild after the one
// stamped lastToken (epoch milliseconds): lastToken + interval + offset -
// now. A non-positive result means the rebuild is already due; the wait is
// then the offset alone.
func NextSleep(lastToken int64, now time.Time, interval, offset time.Duration) time.Duration {
	due := time.UnixMilli(lastToken).Add(interval + offset)
	if d := due.Sub(now); d > 0 {
		return d
	}
	return offset
}
