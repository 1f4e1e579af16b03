package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pathwise/engine/internal/adapters/catalogmem"
	"github.com/pathwise/engine/internal/adapters/http/api"
	"github.com/pathwise/engine/internal/adapters/mq"
	"github.com/pathwise/engine/internal/adapters/repository"
	"github.com/pathwise/engine/internal/app"
	"github.com/pathwise/engine/internal/config"
	"github.com/pathwise/engine/internal/demo"
	"github.com/pathwise/engine/internal/domain/bandit"
	"github.com/pathwise/engine/internal/domain/engagement"
	"github.com/pathwise/engine/internal/domain/journey"
	"github.com/pathwise/engine/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection; the custom registry carries
	// only the engine's own metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Profile store: redis when configured, otherwise in-process.
	var store repository.Store
	if cfg.RedisAddr != "" {
		store, err = repository.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Error(ctx, "redis store unavailable", logger.Error(err))
			return
		}
		log.Info(ctx, "using redis profile store", logger.String("addr", cfg.RedisAddr))
	} else {
		store = repository.NewMemoryStore()
		log.Info(ctx, "using in-memory profile store")
	}
	defer func() {
		_ = store.Close()
	}()

	bus := mq.NewBus()
	defer func() {
		_ = bus.Close()
	}()

	profiler := app.NewProfiler(store, mq.NewPublisher(bus),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithJourneyAnalyzer(journey.NewAnalyzer(journey.WithShardCount(cfg.ShardCount))),
		app.WithEngagementClassifier(engagement.NewClassifier(engagement.WithShardCount(cfg.ShardCount))),
	)

	consumer := mq.NewConsumer(bus, profiler.ProcessRaw, mq.WithWorkerCount(cfg.ConsumerWorkers))
	if err := consumer.Start(ctx); err != nil {
		log.Error(ctx, "failed to start consumer", logger.Error(err))
		return
	}
	defer func() {
		_ = consumer.Stop(context.Background())
	}()

	// Content collaborators default to the in-memory implementations;
	// real services replace them behind the catalog interfaces.
	contentCatalog := catalogmem.NewCatalog()
	if cfg.DemoEvents > 0 {
		contentCatalog.Add(demo.Catalog()...)
		go demo.Run(ctx, bus, cfg.DemoUsers, cfg.DemoEvents)
	}

	recommender := app.NewRecommender(
		contentCatalog,
		catalogmem.NewHistory(),
		catalogmem.NewRecommendations(),
		profiler,
		app.WithDefaultLimit(cfg.DefaultLimit),
		app.WithMaxLimit(cfg.MaxLimit),
		app.WithCacheTTL(time.Duration(cfg.RecommendationCacheTTLSeconds)*time.Second),
		app.WithRanker(bandit.NewRanker(bandit.WithDefaultEpsilon(cfg.EpsilonDefault))),
	)

	mux := http.NewServeMux()
	api.NewServer(map[string]api.StatsProvider{
		"profiler":    profiler,
		"recommender": recommender,
	}).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := consumer.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "consumer shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "engine stopped")
}
