// Package dashboard serves the Tokopaedi reporting pages, their charts and a
// small JSON/xlsx API over one loaded dataset.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tokodash/internal/dataset"
	"tokodash/internal/rfm"
)

type Options struct {
	Source    dataset.Source
	Window    time.Duration
	TopN      int
	CacheSize int
	Logger    *slog.Logger
}

type Server struct {
	source dataset.Source
	topN   int
	cache  *rfm.Cache
	logger *slog.Logger

	reloadMu sync.Mutex
	mu       sync.RWMutex
	tables   *dataset.Tables
}

// New loads the dataset once and returns a server over it.
// A load failure is returned as is so the caller can exit.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, errors.New("dashboard: no dataset source")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Window <= 0 {
		opts.Window = rfm.DefaultWindow
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 8
	}
	cache, err := rfm.NewCache(opts.CacheSize, opts.Window)
	if err != nil {
		return nil, err
	}
	s := &Server{
		source: opts.Source,
		topN:   opts.TopN,
		cache:  cache,
		logger: opts.Logger,
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the source and swaps the dataset in. On failure the
// previous dataset stays in place.
func (s *Server) Reload(ctx context.Context) (*dataset.Tables, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	t, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.source, err)
	}

	s.mu.Lock()
	s.tables = t
	s.mu.Unlock()
	s.cache.Purge()

	counts := t.Counts()
	s.logger.Info("dataset loaded",
		"source", s.source.String(),
		"load_id", t.LoadID,
		"orders", counts[dataset.TableOrders],
		"payments", counts[dataset.TablePayments],
		"duration", time.Since(start),
	)
	return t, nil
}

func (s *Server) Tables() *dataset.Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// RFM returns the memoized RFM result for the current dataset.
func (s *Server) RFM() (*rfm.Result, error) {
	return s.RFMFor(s.Tables())
}

// RFMFor returns the memoized RFM result for t. Handlers that also render
// load metadata pass the tables they already hold so both describe one load.
func (s *Server) RFMFor(t *dataset.Tables) (*rfm.Result, error) {
	return s.cache.Get(t)
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/views/"+defaultView, http.StatusFound)
	})
	r.Get("/views", s.handleSelectView)
	r.Get("/views/{view}", s.handleView)
	r.Get("/charts/{chart}.{format}", s.handleChart)

	r.Get("/api/views/{view}", s.handleAPIView)
	r.Get("/api/rfm", s.handleAPIRFM)
	r.Get("/api/dataset", s.handleAPIDataset)
	r.Get("/export/rfm.xlsx", s.handleExportRFM)
	r.Post("/admin/reload", s.handleReload)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
