package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/auction-mirror/internal/poller"
)

// ErrClosed is reported by Err after Close.
var ErrClosed = errors.New("subscription closed")

// Subscription is a client connection to a Hub.
type Subscription struct {
	conn   *websocket.Conn
	logger *slog.Logger

	summaries chan poller.CycleSummary
	done      chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Dial connects to a feed endpoint (ws:// or wss:// URL).
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		conn:      conn,
		logger:    logger,
		summaries: make(chan poller.CycleSummary, 16),
		done:      make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Summaries returns the channel of received summaries. It is closed when
// the connection ends.
func (s *Subscription) Summaries() <-chan poller.CycleSummary {
	return s.summaries
}

// Err returns the error that ended the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close gracefully closes the connection.
func (s *Subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}

func (s *Subscription) readLoop() {
	defer close(s.summaries)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if s.closed {
				s.err = ErrClosed
			} else {
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		var summary poller.CycleSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			s.logger.Warn("dropping malformed summary", "error", err)
			continue
		}

		select {
		case s.summaries <- summary:
		case <-s.done:
			return
		}
	}
}
