package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/auction-mirror/internal/index"
	"github.com/rickgao/auction-mirror/internal/poller"
	"github.com/rickgao/auction-mirror/internal/version"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// StateReporter is the part of the controller the health check reads.
type StateReporter interface {
	State() poller.State
	Last() (poller.CycleSummary, bool)
}

// Server serves queries against an index store.
type Server struct {
	store      *index.Store
	controller StateReporter
	metrics    http.Handler
	metricsAt  string
	feed       http.Handler
	instanceID string
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithController reports the controller's state in /health.
func WithController(c StateReporter) Option {
	return func(s *Server) {
		s.controller = c
	}
}

// WithMetrics mounts h at path, or /metrics when path is empty.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		if path == "" {
			path = "/metrics"
		}
		s.metrics, s.metricsAt = h, path
	}
}

// WithFeed mounts h at /ws/cycles.
func WithFeed(h http.Handler) Option {
	return func(s *Server) {
		s.feed = h
	}
}

// WithInstanceID reports id in /health.
func WithInstanceID(id string) Option {
	return func(s *Server) {
		s.instanceID = id
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server reading from store.
func New(store *index.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/items", func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Get("/", s.handleItems)
		r.Get("/{itemID}/auctions", s.handleAuctions)
		r.Get("/{itemID}/attributes", s.handleAttributes)
		r.Get("/{itemID}/stats", s.handleStats)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, s.metricsAt, s.metrics)
	}
	if s.feed != nil {
		r.Method(http.MethodGet, "/ws/cycles", s.feed)
	}

	return r
}

type itemSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Auctions int    `json:"auctions"`
}

type healthResponse struct {
	Status     string         `json:"status"`
	Components map[string]any `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()
	health := healthResponse{
		Status: StatusHealthy,
		Components: map[string]any{
			"index":   stats,
			"version": version.String(),
		},
	}
	if s.instanceID != "" {
		health.Components["instance_id"] = s.instanceID
	}

	if s.controller != nil {
		state := s.controller.State()
		ctrl := map[string]any{"state": state.String()}
		if last, ok := s.controller.Last(); ok {
			ctrl["last_cycle"] = last
		}
		health.Components["controller"] = ctrl
		if state != poller.StateSteady {
			health.Status = StatusDegraded
		}
	} else if stats.Token == 0 {
		health.Status = StatusDegraded
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	counts := s.store.ItemCounts()
	items := make([]itemSummary, 0, len(counts))
	for _, c := range counts {
		items = append(items, itemSummary{
			ID:       c.ItemID,
			Name:     s.store.ItemName(c.ItemID),
			Auctions: c.Auctions,
		})
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAuctions(w http.ResponseWriter, r *http.Request) {
	bin, err := binFilter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID := s.itemID(r)
	s.writeJSON(w, http.StatusOK, index.FilterListing(s.store.GetAuctions(itemID), bin))
}

func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAttributeCatalog(s.itemID(r)))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	bin, err := binFilter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.PriceStats(s.itemID(r), bin))
}

// itemID resolves the {itemID} path parameter, which may be a display name.
func (s *Server) itemID(r *http.Request) string {
	return s.store.ResolveItem(chi.URLParam(r, "itemID"))
}

// binFilter parses the optional bin query parameter.
func binFilter(r *http.Request) (*bool, error) {
	raw := r.URL.Query().Get("bin")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &queryError{param: "bin", value: raw}
	}
	return &v, nil
}

type queryError struct {
	param string
	value string
}

func (e *queryError) Error() string {
	return "invalid " + e.param + " value " + strconv.Quote(e.value)
}

// writeJSON encodes v before writing the header so that an encoding
// failure is reported as a 500 instead of a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// NewHTTPServer wraps h in an http.Server listening on addr.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
