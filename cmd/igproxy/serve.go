package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igproxy/internal/cachewriter"
	"igproxy/internal/sweeper"
	"igproxy/pkg/cache"
	"igproxy/pkg/config"
	"igproxy/pkg/instagram"
	"igproxy/pkg/logger"
	"igproxy/pkg/ratelimit"
	"igproxy/pkg/server"
	"igproxy/pkg/ui"
	"igproxy/pkg/web"
)

var (
	serveAddr    string
	serveUI      bool
	rateLimitMax int
	rateWindow   time.Duration
	cacheBackend string
	cachePath    string
	noCache      bool
	upstreamURL  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP proxy and browser UI",
	Long: `Run the HTTP service.

Endpoints:
  POST /post      {"url": "https://www.instagram.com/p/<shortcode>/"}
  POST /reel      {"url": "https://www.instagram.com/reel/<shortcode>/"}
  POST /profile   {"username": "<username>"}
  POST /stories   {"username": "<username>"}
  GET  /healthz

The browser UI is served at / unless disabled with --serve-ui=false.`,
	Example: `  # Listen on the default address with in-memory cache and limiter
  igproxy serve

  # Persist the cache across restarts
  igproxy serve --cache-backend badger --cache-path ./data/cache

  # Allow 100 requests per client every 30 seconds
  igproxy serve --rate-limit 100 --rate-window 30s`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default :8787, or :$PORT)")
	serveCmd.Flags().BoolVar(&serveUI, "serve-ui", true, "serve the browser UI at /")
	serveCmd.Flags().IntVar(&rateLimitMax, "rate-limit", 0, "requests allowed per client per window (default 50)")
	serveCmd.Flags().DurationVar(&rateWindow, "rate-window", 0, "rate limit window (default 1m)")
	serveCmd.Flags().StringVar(&cacheBackend, "cache-backend", "", "cache backend: memory or badger")
	serveCmd.Flags().StringVar(&cachePath, "cache-path", "", "badger cache directory")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	serveCmd.Flags().StringVar(&upstreamURL, "upstream", "", "Instagram base URL")
}

// serveFlags collects the flags the user actually set
func serveFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("addr") {
		flags["addr"] = serveAddr
	}
	if cmd.Flags().Changed("serve-ui") {
		flags["serve-ui"] = serveUI
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["rate-limit"] = rateLimitMax
	}
	if cmd.Flags().Changed("rate-window") {
		flags["rate-window"] = rateWindow
	}
	if cmd.Flags().Changed("cache-backend") {
		flags["cache-backend"] = cacheBackend
	}
	if cmd.Flags().Changed("cache-path") {
		flags["cache-path"] = cachePath
	}
	if noCache {
		flags["no-cache"] = true
	}
	if cmd.Flags().Changed("upstream") {
		flags["upstream"] = upstreamURL
	}
	return flags
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	p := ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet)
	p.Logo()
	p.Panel("Configuration", settingsSummary(cfg))

	log := logger.GetLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{server.WithLogger(log)}
	sweep := sweeper.New(log)

	var (
		store  cache.Cache
		writer *cachewriter.Pool
	)
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer closeWithLog(log, "cache", store.Close)

		writer = cachewriter.New(cfg.Cache.Writers, store, log)
		writer.Start()
		defer writer.Stop()

		if err := sweep.AddTask("cache", cfg.Cache.SweepSchedule, store.Sweep); err != nil {
			return err
		}
		opts = append(opts, server.WithCache(store, writer))
	} else {
		p.Warning("Response cache disabled")
	}

	limiter, err := ratelimit.Open(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("failed to open rate limiter: %w", err)
	}
	if limiter != nil {
		defer closeWithLog(log, "rate limiter", limiter.Close)

		if err := sweep.AddTask("ratelimit", cfg.RateLimit.SweepSchedule, limiter.Sweep); err != nil {
			return err
		}
		opts = append(opts, server.WithRateLimiter(limiter))
	} else {
		p.Warning("Rate limiting disabled")
	}

	if cfg.Server.ServeUI {
		opts = append(opts, server.WithUI(web.Handler()))
	}

	sweep.Start()
	defer sweep.Stop()

	client := instagram.NewClientFromConfig(cfg.Upstream, cfg.Retry, log)
	srv := server.New(cfg, client, opts...)

	p.Success("Listening on " + cfg.Server.Addr)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	p.Success("Shut down cleanly")
	return nil
}

// closeWithLog closes a resource during shutdown, logging failures
func closeWithLog(log logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.WithError(err).WithField("resource", name).Error("Failed to close")
	}
}

func settingsSummary(cfg *config.Config) []ui.Field {
	rateLimit := "disabled"
	if cfg.RateLimit.Enabled {
		rateLimit = fmt.Sprintf("%d per %s (%s)", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.Backend)
	}
	cacheDesc := "disabled"
	if cfg.Cache.Enabled {
		cacheDesc = cfg.Cache.Backend
		if cfg.Cache.Path != "" {
			cacheDesc += " at " + cfg.Cache.Path
		}
	}

	return []ui.Field{
		{Label: "Address", Value: cfg.Server.Addr},
		{Label: "Browser UI", Value: strconv.FormatBool(cfg.Server.ServeUI)},
		{Label: "Rate limit", Value: rateLimit},
		{Label: "Cache", Value: cacheDesc},
		{Label: "Upstream", Value: cfg.Upstream.BaseURL},
		{Label: "Log level", Value: cfg.Logging.Level},
	}
}

