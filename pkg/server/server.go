// Package server exposes the media endpoints over HTTP.
//
// Every request passes through the same stack: panic recovery, request ids,
// request logging, CORS, bare OPTIONS handling and the per-client rate
// limiter. Media requests are then answered from the response cache or
// fetched from Instagram, with concurrent misses for the same key sharing
// one upstream fetch.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"igproxy/internal/cachewriter"
	"igproxy/pkg/cache"
	"igproxy/pkg/config"
	"igproxy/pkg/logger"
	"igproxy/pkg/models"
	"igproxy/pkg/ratelimit"
)

// MediaSource fetches normalized media lists. *instagram.Client implements it.
type MediaSource interface {
	FetchPost(ctx context.Context, shortcode string) ([]models.MediaItem, error)
	FetchReel(ctx context.Context, shortcode string) ([]models.MediaItem, error)
	FetchProfile(ctx context.Context, username string) ([]models.MediaItem, error)
	FetchStories(ctx context.Context, username string) ([]models.MediaItem, error)
}

// Server holds the dependencies of the HTTP handlers
type Server struct {
	cfg      config.ServerConfig
	cacheCfg config.CacheConfig
	proxies  []netip.Prefix

	// Deadline for one shared upstream fetch, detached from callers
	fetchTimeout time.Duration

	source  MediaSource
	cache   cache.Cache
	writer  *cachewriter.Pool
	limiter *ratelimit.FixedWindow
	ui      http.Handler

	validate *validator.Validate
	inflight singleflight.Group
	router   *chi.Mux
	logger   logger.Logger
}

// Option customizes a Server
type Option func(*Server)

// WithCache answers repeated requests from c. Fresh responses are stored
// through writer after they have been sent.
func WithCache(c cache.Cache, writer *cachewriter.Pool) Option {
	return func(s *Server) {
		s.cache = c
		s.writer = writer
	}
}

// WithRateLimiter enables per-client inbound rate limiting
func WithRateLimiter(l *ratelimit.FixedWindow) Option {
	return func(s *Server) { s.limiter = l }
}

// WithUI serves the browser frontend at / and /static/
func WithUI(h http.Handler) Option {
	return func(s *Server) { s.ui = h }
}

// WithLogger replaces the global logger
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server with all routes configured
func New(cfg *config.Config, source MediaSource, opts ...Option) *Server {
	s := &Server{
		cfg:          cfg.Server,
		cacheCfg:     cfg.Cache,
		fetchTimeout: 2 * cfg.Upstream.Timeout,
		source:       source,
		validate:     newValidator(),
		router:       chi.NewRouter(),
		logger:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "server")

	proxies, err := cfg.Server.ProxyPrefixes()
	if err != nil {
		// Validate reports this; trust no proxy rather than every proxy
		s.logger.WithError(err).Warn("Ignoring trusted proxies")
		s.cfg.TrustProxyHeaders = false
	}
	s.proxies = proxies

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.recoverer)
	s.router.Use(s.requestID)
	s.router.Use(s.requestLogger)
	s.router.Use(corsHandler())
	s.router.Use(preflight)
	s.router.Use(s.rateLimit)
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Endpoint not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router.Get(healthPath, s.handleHealth)

	s.router.Post("/post", s.mediaHandler(postEndpoint(s.source)))
	s.router.Post("/reel", s.mediaHandler(reelEndpoint(s.source)))
	s.router.Post("/profile", s.mediaHandler(profileEndpoint(s.source)))
	s.router.Post("/stories", s.mediaHandler(storiesEndpoint(s.source)))

	if s.cfg.ServeUI && s.ui != nil {
		s.router.Get("/", s.ui.ServeHTTP)
		s.router.Get("/static/*", s.ui.ServeHTTP)
	}
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("HTTP server starting")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
