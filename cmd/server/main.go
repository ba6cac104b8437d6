// main wires the sync core: remote store, mirror, mutation coordinator,
// audit pipeline, invalidation subscriber, and the HTTP surface. Business
// logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"axis/internal/audit"
	"axis/internal/cache"
	"axis/internal/dashboard/handler"
	"axis/internal/datasync"
	"axis/internal/domain"
	"axis/internal/identity"
	"axis/internal/platform/config"
	"axis/internal/platform/httpserver"
	"axis/internal/platform/logger"
	"axis/internal/platform/metrics"
	"axis/internal/platform/middleware"
	platformredis "axis/internal/platform/redis"
	"axis/internal/rating"
	"axis/internal/realtime"
	"axis/internal/remote"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := remote.NewFromConfig(cfg.Remote)
	if err != nil {
		log.Error("remote store init failed", "error", err)
		os.Exit(1)
	}

	mirror := cache.NewMirror()
	defer mirror.Dispose()

	// Audit pipeline: non-blocking publisher, one draining worker, optional
	// Kafka mirror.
	publisher := audit.NewPublisher(0, m)
	var sink audit.Sink
	kafkaSink, err := audit.NewKafkaSink(cfg.Kafka)
	if err != nil {
		log.Error("kafka sink init failed", "error", err)
		os.Exit(1)
	}
	if kafkaSink != nil {
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	worker := audit.NewWorker(store, mirror, publisher.Inbox(), sink, log, m)
	go worker.Run(ctx)

	service := datasync.NewService(store, mirror, publisher, identity.ContextProvider{}, log, m, cfg.Sync.FetchTimeout)

	// First snapshot before serving; failures are per collection and the
	// push channel will heal them.
	service.Resync(ctx)

	scheduler := realtime.NewScheduler(service, cfg.Sync.Debounce)
	go scheduler.Run(ctx)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		subscriber := realtime.NewSubscriber(redisClient, cfg.Redis.ChannelPrefix, scheduler, log, m)
		go func() {
			if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("invalidation subscription lost", "error", err)
			}
		}()
	} else {
		log.Warn("no redis configured, mirror refreshes only on demand")
	}

	var auth func(http.Handler) http.Handler
	if cfg.Remote.Driver == "memory" || cfg.Remote.Driver == "" {
		// Demo mode has no token issuer; act as the seeded operator.
		auth = middleware.StaticAuth(identity.User{ID: remote.DemoOperatorID, Role: domain.RoleSuperAdmin})
	} else {
		auth = middleware.RequireAuth(identity.NewVerifier(cfg.JWTSigningKey), log)
	}

	rater := rating.NewClient(cfg.Rating.Endpoint, cfg.Rating.APIKey, cfg.Rating.Timeout, log)

	router := chi.NewRouter()
	handler.New(service, rater, auth, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("axis dashboard listening", "addr", cfg.Addr, "driver", cfg.Remote.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if dropped := publisher.Dropped(); dropped > 0 {
		log.Warn("audit entries dropped over lifetime", "count", dropped)
	}
}
