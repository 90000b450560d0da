// Package app initializes and runs the news aggregation service.
// It configures logging, storage, the provider cache, the aggregation engine,
// authentication and routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/newsaggr/internal/aggregator"
	"github.com/patric-chuzhbe/newsaggr/internal/auth"
	"github.com/patric-chuzhbe/newsaggr/internal/cache"
	"github.com/patric-chuzhbe/newsaggr/internal/config"
	"github.com/patric-chuzhbe/newsaggr/internal/db/memorystorage"
	"github.com/patric-chuzhbe/newsaggr/internal/ipchecker"
	"github.com/patric-chuzhbe/newsaggr/internal/logger"
	"github.com/patric-chuzhbe/newsaggr/internal/models"
	"github.com/patric-chuzhbe/newsaggr/internal/provider"
	"github.com/patric-chuzhbe/newsaggr/internal/provider/gnews"
	"github.com/patric-chuzhbe/newsaggr/internal/provider/newsapi"
	"github.com/patric-chuzhbe/newsaggr/internal/router"
	"github.com/patric-chuzhbe/newsaggr/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App owns the configuration, the HTTP handler, the store and the cache
// sweeper.
type App struct {
	cfg          *config.Config
	db           *memorystorage.MemoryStorage
	articleCache *cache.Cache[[]models.Article]
	httpHandler  http.Handler
}

// New initializes the App: configuration, logger, store, cache, the two
// provider adapters (NewsAPI first, GNews second), engine, auth and router.
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	signingKey, err := app.cfg.JWTSigningKey()
	if err != nil {
		return nil, err
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.db = memorystorage.New()
	app.articleCache = cache.New[[]models.Article](app.cfg.CacheTTLDuration())

	timeout := app.cfg.ProviderTimeoutDuration()
	fetchers := []aggregator.Fetcher{
		provider.NewAdapter(newsapi.New(app.cfg.NewsAPIBaseURL, app.cfg.NewsAPIKey, timeout), app.articleCache),
		provider.NewAdapter(gnews.New(app.cfg.GNewsBaseURL, app.cfg.GNewsKey, timeout), app.articleCache),
	}
	for _, f := range fetchers {
		if !f.Configured() {
			logger.Log.Warnw("news provider has no API key, it will be skipped", "provider", f.Name())
		}
	}

	svc := service.New(
		app.db,
		aggregator.New(fetchers),
		app.articleCache,
		app.cfg.FetchLimit,
	)

	app.httpHandler = router.New(
		svc,
		auth.New(app.db, app.cfg.AuthCookieName, signingKey, app.cfg.JWTLifetimeDuration()),
		checker,
		router.WithPageSizes(app.cfg.DefaultPageSize, app.cfg.MaxPageSize),
		router.WithDefaultLanguage(app.cfg.DefaultLanguage),
		router.WithRequestTimeout(2*timeout+5*time.Second),
	)

	return app, nil
}

// Handler exposes the HTTP handler, mostly for tests.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the cache sweeper and the HTTP server and blocks until a
// termination signal arrives or the server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		a.articleCache.RunSweeper(sweeperCtx, a.cfg.CacheSweepIntervalDuration())
	}()
	defer func() {
		stopSweeper()
		<-sweeperDone
	}()

	logger.Log.Infow("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infow("received shutdown signal, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
