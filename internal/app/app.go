// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/labatlas/centerscrape/internal/config"
	"github.com/labatlas/centerscrape/internal/diag"
	"github.com/labatlas/centerscrape/internal/directory"
	"github.com/labatlas/centerscrape/internal/fetch"
	"github.com/labatlas/centerscrape/internal/profile"
	"github.com/labatlas/centerscrape/internal/ratelimit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Sink        diag.Sink
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	Fetcher     *fetch.Client
	Directory   *directory.Scraper
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the diagnostic sink (failed URL and missing field logs)
//   - Creates the rate limiter for domain-based request throttling
//   - Initializes the HTTP client with proper timeouts
//   - Creates the directory scraper with all dependencies
//
// If any step fails, an error is returned and no resources are allocated.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize logger based on config
	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		// Human-friendly console output otherwise
		logWriter = zerolog.NewConsoleWriter()
	}

	logger := log.Output(logWriter).With().Timestamp().Logger()

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	// Open diagnostic sink
	sink, err := diag.NewFileSink(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic sink: %w", err)
	}
	logger.Debug().
		Str("dir", cfg.OutputDir).
		Msg("Diagnostic sink initialized")

	// Create rate limiter
	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.DelayMin, cfg.DelayMax)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	// Create HTTP client
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: transport,
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Msg("HTTP client initialized")

	// Create fetcher + directory scraper
	fetcher := fetch.New(httpClient, rateLimiter, sink, cfg.HTTPTimeout)
	dirScraper := directory.New(fetcher, sink, cfg.DirectoryBaseURL)
	logger.Debug().
		Str("base_url", cfg.DirectoryBaseURL).
		Msg("Directory scraper initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Sink:        sink,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		Fetcher:     fetcher,
		Directory:   dirScraper,
		startTime:   time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// ProfileScraper builds a browser-backed profile enricher from the
// application's configuration. The browser itself is started per lookup, so
// constructing the scraper is cheap and no cleanup beyond the usual Close is
// required.
func (a *Application) ProfileScraper(headless bool) *profile.Scraper {
	return profile.New(profile.Options{
		Sink:       a.Sink,
		SearchURL:  a.Config.ProfileSearchURL,
		ChromePath: a.Config.ChromePath,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Config.Proxy,
		Headless:   headless,
		Timeout:    a.Config.HTTPTimeout,
	})
}

// Close gracefully shuts down the application and all its resources.
//
// Any errors during shutdown are logged but do not prevent other shutdown
// steps from running.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().
		Dur("uptime", time.Since(a.startTime)).
		Msg("Shutting down application")

	if a.Sink != nil {
		if err := a.Sink.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing diagnostic sink")
		}
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Msg("Application shutdown complete")
	return nil
}
