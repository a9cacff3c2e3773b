package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"nodestore/internal/logger"
	"nodestore/internal/stats"
	"nodestore/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultReadHeaderTimeout = 5 * time.Second

// Config holds the listen settings for a Server
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
}

// Server exposes a store over HTTP. The store is single-threaded, so every
// handler takes mu for the duration of its store calls.
type Server struct {
	cfg   Config
	mu    sync.Mutex
	db    *store.Store
	stats *stats.Manager

	router http.Handler
	http   *http.Server
	ln     net.Listener
}

// New creates a server with an empty store
func New(cfg Config) *Server {
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = defaultReadHeaderTimeout
	}

	s := &Server{
		cfg:   cfg,
		db:    store.New(),
		stats: stats.NewManager(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusOK)
	})
	r.Get("/stats", s.handleStats)

	r.Route("/string", func(r chi.Router) {
		r.Post("/", s.handleStringSet)
		r.Get("/", s.handleStringGet)
	})
	r.Route("/list", func(r chi.Router) {
		r.Post("/lpush", s.handleListPush(pushFront))
		r.Post("/rpush", s.handleListPush(pushBack))
		r.Get("/", s.handleListRange)
	})
	r.Route("/set", func(r chi.Router) {
		r.Post("/", s.handleSetAdd)
		r.Get("/", s.handleSetMembers)
	})
	r.Route("/hash", func(r chi.Router) {
		r.Post("/", s.handleHashSet)
		r.Get("/", s.handleHashGet)
	})
	r.Route("/zset", func(r chi.Router) {
		r.Post("/", s.handleZSetAdd)
		r.Get("/", s.handleZSetRange)
	})
	r.Route("/key", func(r chi.Router) {
		r.Delete("/", s.handleDelete)
		r.Get("/type", s.handleType)
	})

	return r
}

// Handler returns the router, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server stopped: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one
// when port 0 was requested.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Close stops accepting requests and waits for in-flight ones until ctx ends
func (s *Server) Close(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// withStore runs fn with exclusive access to the store
func (s *Server) withStore(fn func(db *store.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.db)
}
