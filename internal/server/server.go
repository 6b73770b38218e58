// Package server exposes datasets, dashboard views and stock data over HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/tabdash/internal/dashboard"
	"github.com/KaramelBytes/tabdash/internal/dataset"
	"github.com/KaramelBytes/tabdash/internal/table"
)

// PriceSource fetches daily prices for a symbol.
type PriceSource interface {
	FetchDaily(ctx context.Context, symbol string, start, endExclusive time.Time) (*table.Table, error)
}

// Options configures a Server.
type Options struct {
	Addr        string
	CORSOrigins []string
	MaxUploadMB int
	ChartWidth  int
	ChartHeight int
	// MaxDatasets caps the uploads kept in memory; zero means DefaultMaxDatasets.
	MaxDatasets int
	Settings    dashboard.Settings
	// RequestTimeout bounds each request; zero means 60s.
	RequestTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	opt      Options
	resolver *dataset.Resolver
	store    *Store
	prices   PriceSource
	server   *http.Server
	router   *chi.Mux
}

// NewServer wires the routes. prices may be nil, in which case the stock
// endpoints answer 503.
func NewServer(opt Options, resolver *dataset.Resolver, prices PriceSource) *Server {
	if opt.MaxUploadMB <= 0 {
		opt.MaxUploadMB = 20
	}
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 60 * time.Second
	}
	if len(opt.CORSOrigins) == 0 {
		opt.CORSOrigins = []string{"*"}
	}
	if resolver == nil {
		resolver = dataset.NewResolver("")
	}
	s := &Server{opt: opt, resolver: resolver, store: NewStore(opt.MaxDatasets), prices: prices}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(opt.RequestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opt.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Route("/v1", func(r chi.Router) {
			r.Get("/views", s.listViews)
			r.Route("/datasets", func(r chi.Router) {
				r.Post("/", s.uploadDataset)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/schema", s.getSchema)
					r.Get("/summary", s.getSummary)
					r.Get("/export.csv", s.exportDataset)
					r.Get("/export.xlsx", s.exportDataset)
					r.Get("/views/{view}", s.getView)
					r.Get("/views/{view}/chart.png", s.getViewChart)
				})
			})
			r.Route("/stocks", func(r chi.Router) {
				r.Get("/", s.listStocks)
				r.Get("/{symbol}", s.getStock)
				r.Get("/{symbol}/chart.png", s.getStockChart)
				r.Get("/{symbol}/data.csv", s.getStockData)
			})
		})
	})

	s.router = router
	s.server = &http.Server{
		Addr:              opt.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	log.Printf("tabdash listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("tabdash shutting down")
	return s.server.Shutdown(ctx)
}
