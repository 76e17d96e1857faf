// Package app builds the long-lived services of the concert crawler and owns
// their lifecycle. It is the dependency injection root shared by every CLI
// command.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/api"
	"github.com/JakeFAU/concert-crawler/internal/clock/system"
	"github.com/JakeFAU/concert-crawler/internal/concert"
	"github.com/JakeFAU/concert-crawler/internal/config"
	"github.com/JakeFAU/concert-crawler/internal/dates"
	"github.com/JakeFAU/concert-crawler/internal/dispatcher"
	"github.com/JakeFAU/concert-crawler/internal/fetcher"
	collyfetcher "github.com/JakeFAU/concert-crawler/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/concert-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/concert-crawler/internal/hash/sha256"
	"github.com/JakeFAU/concert-crawler/internal/headless/detector"
	"github.com/JakeFAU/concert-crawler/internal/id/uuid"
	"github.com/JakeFAU/concert-crawler/internal/logging"
	"github.com/JakeFAU/concert-crawler/internal/metrics"
	"github.com/JakeFAU/concert-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/concert-crawler/internal/policy/retry"
	"github.com/JakeFAU/concert-crawler/internal/progress"
	progresssinks "github.com/JakeFAU/concert-crawler/internal/progress/sinks"
	memorypublisher "github.com/JakeFAU/concert-crawler/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/concert-crawler/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/concert-crawler/internal/queue/memory"
	"github.com/JakeFAU/concert-crawler/internal/readability"
	"github.com/JakeFAU/concert-crawler/internal/resolver"
	"github.com/JakeFAU/concert-crawler/internal/scraper"
	gcsstorage "github.com/JakeFAU/concert-crawler/internal/storage/gcs"
	localstorage "github.com/JakeFAU/concert-crawler/internal/storage/local"
	memoryStorage "github.com/JakeFAU/concert-crawler/internal/storage/memory"
	pgstore "github.com/JakeFAU/concert-crawler/internal/storage/postgres"
	"github.com/JakeFAU/concert-crawler/internal/store"
	"github.com/JakeFAU/concert-crawler/internal/strategy/filharmonia"
	"github.com/JakeFAU/concert-crawler/internal/strategy/generic"
	"github.com/JakeFAU/concert-crawler/internal/telemetry"
	"github.com/JakeFAU/concert-crawler/internal/worker"
)

// readableChars bounds the text handed to the generic strategy's fallback.
const readableChars = 20000

// Store is everything the application needs from persistence.
type Store interface {
	store.VenueRepository
	store.UnitOfWork
	store.ConcertQuery
	store.ProgressRepository
}

// App contains the application's dependencies.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	store     Store
	pgStore   *pgstore.Store
	gcsClient *storage.Client
	gcpPub    *gcppublisher.Publisher
	headless  *headlessfetcher.Fetcher

	tracker     *progress.Tracker
	progressHub *progress.Hub
	service     *scraper.Service
	queue       *queueMemory.Queue
	dispatch    *dispatcher.Dispatcher
	workers     []*worker.Worker
	pool        *worker.Pool
	apiServer   *api.Server

	tracerShutdown func(context.Context) error
	closeOnce      sync.Once
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logging.OrNop(logger)}
	app.logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("archive", cfg.Archive.Provider),
		zap.String("notify", cfg.Notify.Provider),
	)
	metrics.Init()

	ok := false
	defer func() {
		if !ok {
			app.closeInfrastructure(context.WithoutCancel(ctx))
		}
	}()

	if cfg.Telemetry.TracingEnabled {
		tp, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("tracer init failed: %w", err)
		}
		app.tracerShutdown = tp.Shutdown
	}

	if err := setupDatabase(ctx, app); err != nil {
		return nil, err
	}
	archive, err := setupArchive(ctx, app)
	if err != nil {
		return nil, err
	}
	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}
	selector, err := setupSelector(app, archive)
	if err != nil {
		return nil, err
	}
	emitter := setupProgress(ctx, app)

	clock := system.New()
	app.tracker = progress.NewTracker(clock)
	app.service = scraper.New(
		app.store,
		selector,
		resolver.New(app.store, sha256.New(), clock, app.logger),
		scraper.Options{
			Tracker:   app.tracker,
			Emitter:   emitter,
			Publisher: publisher,
			Topic:     cfg.Notify.Topic,
			IDs:       uuid.New(),
			Clock:     clock,
			Logger:    app.logger,
		},
	)
	setupWorkers(app, clock)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	deps := api.Deps{
		Scraper:  app.pool,
		Venues:   app.store,
		Concerts: app.store,
		Progress: app.tracker,
		Location: loc,
	}
	if cfg.Progress.PersistRuns {
		deps.Runs = app.store
	}
	opts := api.Options{RequestTimeout: cfg.RequestTimeout(), Logger: app.logger}
	if cfg.Auth.Enabled {
		opts.APIKey = cfg.Auth.APIKey
	}
	app.apiServer = api.NewServer(deps, opts)

	ok = true
	return app, nil
}

func setupDatabase(ctx context.Context, app *App) error {
	if app.cfg.DB.Driver != "postgres" {
		app.logger.Warn("using in-memory store; venues and concerts are lost on exit")
		app.store = memoryStorage.NewConcertStore()
		return nil
	}
	pg, err := pgstore.Open(ctx, pgstore.Config{
		DSN:      app.cfg.DB.DSN,
		MaxConns: app.cfg.DB.MaxConns,
		MinConns: app.cfg.DB.MinConns,
	})
	if err != nil {
		return fmt.Errorf("postgres store init failed: %w", err)
	}
	app.pgStore = pg
	app.store = pg
	if app.cfg.DB.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
		app.logger.Info("schema migrated")
	}
	app.logger.Info("postgres store initialized",
		zap.Int32("max_conns", app.cfg.DB.MaxConns),
		zap.Int32("min_conns", app.cfg.DB.MinConns),
	)
	return nil
}

func setupArchive(ctx context.Context, app *App) (concert.BlobStore, error) {
	var (
		blobStore concert.BlobStore
		err       error
	)
	switch app.cfg.Archive.Provider {
	case "gcs":
		app.logger.Info("using GCS archive", zap.String("bucket", app.cfg.Archive.GCSBucket))
		app.gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		blobStore, err = gcsstorage.New(app.gcsClient, gcsstorage.Config{Bucket: app.cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
	case "local":
		app.logger.Info("using local archive", zap.String("path", app.cfg.Archive.BaseDir))
		blobStore, err = localstorage.New(localstorage.Config{BaseDir: app.cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
	case "memory":
		app.logger.Info("using in-memory archive")
		blobStore = memoryStorage.NewBlobStore()
	default:
		app.logger.Debug("page archiving disabled")
	}
	return blobStore, nil
}

func setupPublisher(ctx context.Context, app *App) (concert.Publisher, error) {
	switch app.cfg.Notify.Provider {
	case "pubsub":
		pub, err := gcppublisher.Connect(ctx, app.cfg.Notify.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		app.gcpPub = pub
		app.logger.Info("Pub/Sub publisher initialized",
			zap.String("project", app.cfg.Notify.ProjectID),
			zap.String("topic", app.cfg.Notify.Topic),
		)
		return pub, nil
	case "memory":
		app.logger.Info("using in-memory publisher")
		return memorypublisher.New(), nil
	default:
		app.logger.Debug("scrape notifications disabled")
		return nil, nil
	}
}

func setupSelector(app *App, archive concert.BlobStore) (*dispatcher.Selector, error) {
	cfg := app.cfg
	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	app.logger.Info("using colly probe fetcher", zap.String("user_agent", cfg.Scrape.UserAgent))

	opts := fetcher.Options{
		Detector: detector.NewHeuristic(0, cfg.Headless.PromotionThresh),
		Limiter: ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Scrape.RequestsPerSecond,
			DefaultBurst: cfg.Scrape.Burst,
		}),
		Retry:         retry.New(retry.Config{MaxAttempts: cfg.Scrape.RetryAttempts}),
		Archive:       archive,
		Hasher:        sha256.New(),
		Clock:         system.New(),
		ArchivePrefix: cfg.Archive.Prefix,
		Logger:        app.logger,
	}
	if cfg.Headless.Enabled {
		headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Scrape.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			app.logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			app.headless = headless
			opts.Headless = headless
			app.logger.Info("using headless fetcher", zap.Int("max_parallel", cfg.Headless.MaxParallel))
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := cfg.DefaultClock()
	if err != nil {
		return nil, err
	}
	normalizer := dates.New(system.NewIn(loc),
		dates.WithLocation(loc),
		dates.WithDefaultTime(hour, minute),
		dates.WithLogger(app.logger),
	)
	return dispatcher.NewSelector(
		generic.Config{BlockCap: cfg.Scrape.GenericBlockCap},
		filharmonia.Config{ItemCap: cfg.Scrape.DetailCap},
		dispatcher.Deps{
			Fetcher: fetcher.NewChain(probe, opts),
			Reader:  readability.New(readableChars),
			Dates:   normalizer,
			Logger:  app.logger,
		},
	), nil
}

func setupProgress(ctx context.Context, app *App) progress.Emitter {
	sinks := []progress.Sink{progresssinks.NewLogSink(app.logger.Named("progress_log"))}
	promSink, err := progresssinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		app.logger.Warn("progress metrics sink disabled", zap.Error(err))
	} else {
		sinks = append(sinks, promSink)
	}
	if app.cfg.Progress.PersistRuns {
		sinks = append(sinks, progresssinks.NewStoreSink(app.store, app.logger.Named("progress_store")))
	}
	hubCfg := progress.Config{
		BufferSize:   app.cfg.Progress.BufferSize,
		MaxBatchWait: time.Duration(app.cfg.Progress.BatchWaitMs) * time.Millisecond,
		BaseContext:  context.WithoutCancel(ctx),
		Logger:       app.logger.Named("progress_hub"),
	}
	app.progressHub = progress.NewHub(hubCfg, sinks...)
	app.logger.Debug("progress hub initialized",
		zap.Int("sinks", len(sinks)),
		zap.Bool("persist_runs", app.cfg.Progress.PersistRuns),
	)
	return app.progressHub
}

func setupWorkers(app *App, clock concert.Clock) {
	app.queue = queueMemory.NewQueue(app.cfg.Worker.QueueDepth)
	app.dispatch = dispatcher.New(app.queue, clock, app.logger)
	guard := worker.NewGuard()
	app.workers = make([]*worker.Worker, 0, app.cfg.Worker.Concurrency)
	for i := range app.cfg.Worker.Concurrency {
		app.workers = append(app.workers, worker.New(
			app.dispatch,
			app.service,
			guard,
			app.logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	app.pool = worker.NewPool(app.dispatch, app.service, guard, clock, app.logger)
	app.logger.Info("worker pool configured",
		zap.Int("concurrency", app.cfg.Worker.Concurrency),
		zap.Int("queue_depth", app.cfg.Worker.QueueDepth),
	)
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the configured persistence backend.
func (a *App) Store() Store { return a.store }

// Scraper returns the scrape entry point shared by the API and the CLI.
func (a *App) Scraper() worker.Scraper { return a.pool }

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler { return a.apiServer.Handler() }

// Migrate applies the embedded schema. It is a no-op for the memory store.
func (a *App) Migrate(ctx context.Context) error {
	if a.pgStore == nil {
		a.logger.Info("memory store needs no migration")
		return nil
	}
	if err := a.pgStore.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Run serves the HTTP API and the background workers until ctx is canceled
// or the process receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		a.logger.Info("dispatcher started")
		a.dispatch.Run(ctx, a.workers)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	default:
		return nil
	}
}

// Close releases every resource Build acquired. It is safe to call more
// than once.
func (a *App) Close(ctx context.Context) {
	a.closeOnce.Do(func() {
		if a.queue != nil {
			a.queue.Close()
		}
		a.closeInfrastructure(ctx)
		a.closeObservability(ctx)
		a.logger.Info("shutdown complete")
	})
}

func (a *App) closeInfrastructure(ctx context.Context) {
	if a.progressHub != nil {
		if err := a.progressHub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.headless != nil {
		a.headless.Close()
	}
	if a.gcpPub != nil {
		if err := a.gcpPub.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
}

func (a *App) closeObservability(ctx context.Context) {
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	// Sync fails on stderr/stdout for some terminals; nothing to do about it.
	_ = a.logger.Sync()
}
