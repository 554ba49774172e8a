package poller

import "time"

// Cycle kinds.
const (
	KindFull        = "full"
	KindIncremental = "incremental"
)

// State is the controller's lifecycle state.
type State int32

const (
	StateBootstrapping State = iota
	StateSteady
)

func (s State) String() string {
	if s == StateSteady {
		return "steady"
	}
	return "bootstrapping"
}

// CycleSummary describes one finished cycle.
type CycleSummary struct {
	ID             string        `json:"id"`
	Kind           string        `json:"kind"`
	Token          int64         `json:"token"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	Pages          int           `json:"pages"`
	Added          int           `json:"added"`
	Ended          int           `json:"ended"`
	Removed        int           `json:"removed"`
	Anomalies      int           `json:"anomalies"`
	DecodeFailures int           `json:"decode_failures"`
	LiveAuctions   int           `json:"live_auctions"`
	Items          int           `json:"items"`
	NextSleep      time.Duration `json:"next_sleep_ns"`
	Error          string        `json:"error,omitempty"`
}

// OK reports whether the cycle published a snapshot.
func (s CycleSummary) OK() bool {
	return s.Error == ""
}

// Notifier receives a summary after every cycle. Notify must not block.
type Notifier interface {
	Notify(CycleSummary)
}

// NotifierFunc is a function adapter for Notifier.
type NotifierFunc func(CycleSummary)

func (f NotifierFunc) Notify(s CycleSummary) {
	f(s)
}
