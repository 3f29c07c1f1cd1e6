// Command server runs the adoption and verification lifecycle engine. main
// wires storage, messaging, and the feature services together and keeps the
// server lifecycle small; business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adopterhandler "homeward/internal/adopter/handler"
	adopterservice "homeward/internal/adopter/service"
	adopterstore "homeward/internal/adopter/store"
	applicationhandler "homeward/internal/application/handler"
	applicationservice "homeward/internal/application/service"
	applicationstore "homeward/internal/application/store"
	"homeward/internal/audit"
	auditmemory "homeward/internal/audit/store/memory"
	auditpostgres "homeward/internal/audit/store/postgres"
	"homeward/internal/jwtauth"
	"homeward/internal/notify"
	notifykafka "homeward/internal/notify/kafka"
	organizationhandler "homeward/internal/organization/handler"
	organizationservice "homeward/internal/organization/service"
	organizationstore "homeward/internal/organization/store"
	"homeward/internal/petcatalog"
	"homeward/internal/platform/config"
	"homeward/internal/platform/httpserver"
	"homeward/internal/platform/logger"
	"homeward/internal/platform/metrics"
	"homeward/internal/platform/postgres"
	"homeward/internal/platform/redis"
	"homeward/internal/stats"
	statscache "homeward/internal/stats/cache"
	statshandler "homeward/internal/stats/handler"
	httptransport "homeward/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// applicationStore is the full surface the wiring needs from one application
// store value: the service's own store plus the two cross-machine gates.
type applicationStore interface {
	applicationservice.ApplicationStore
	adopterservice.ActiveApplicationChecker
	organizationservice.ApplicationRemover
}

type dbHealth struct{ db *sql.DB }

func (h dbHealth) Health(ctx context.Context) error { return h.db.PingContext(ctx) }

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}

	var (
		adopterStore      adopterservice.AdopterStore
		organizationStore organizationservice.OrganizationStore
		appStore          applicationStore
		auditStore        audit.Store
		health            = map[string]httptransport.HealthChecker{}
	)
	if db != nil {
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		adopterStore = adopterstore.NewPostgres(db)
		organizationStore = organizationstore.NewPostgres(db)
		appStore = applicationstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		health["postgres"] = dbHealth{db: db}
		log.Info("using postgres stores")
	} else {
		adopterStore = adopterstore.NewInMemory()
		organizationStore = organizationstore.NewInMemory()
		appStore = applicationstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("POSTGRES_URL not set, using in-memory stores")
	}

	var notifier notify.Notifier = notify.LogNotifier{Logger: log}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := notifykafka.NewPublisher(ctx, cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifier = publisher
		log.Info("publishing status events to kafka", "topic", cfg.Kafka.Topic)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}

	m := metrics.New()
	recorder := audit.NewRecorder(auditStore)
	catalog := petcatalog.LogCatalog{Logger: log}

	organizationService := organizationservice.New(organizationStore, recorder,
		organizationservice.WithLogger(log),
		organizationservice.WithNotifier(notifier),
		organizationservice.WithMetrics(m),
		organizationservice.WithApplicationRemover(appStore),
		organizationservice.WithCatalog(catalog),
	)
	adopterService := adopterservice.New(adopterStore, recorder,
		adopterservice.WithLogger(log),
		adopterservice.WithNotifier(notifier),
		adopterservice.WithMetrics(m),
		adopterservice.WithApplicationChecker(appStore),
	)
	applicationService := applicationservice.New(appStore, recorder,
		applicationservice.WithLogger(log),
		applicationservice.WithNotifier(notifier),
		applicationservice.WithMetrics(m),
		applicationservice.WithStandingReader(adopterService),
		applicationservice.WithVerificationGate(organizationService),
		applicationservice.WithCatalog(catalog),
	)

	statsOpts := []stats.Option{stats.WithLogger(log)}
	if redisClient != nil {
		defer redisClient.Close()
		statsOpts = append(statsOpts, stats.WithCache(statscache.New(redisClient, cfg.Redis.StatsTTL, log)))
		health["redis"] = redisClient
		log.Info("caching stats snapshots in redis", "ttl", cfg.Redis.StatsTTL)
	}
	statsService := stats.New(adopterService, organizationService, applicationService, statsOpts...)

	tokens := jwtauth.NewService(cfg.JWTSigningKey, "homeward")

	router := httptransport.NewRouter(httptransport.Deps{
		Adopters:      adopterhandler.New(adopterService, log),
		Organizations: organizationhandler.New(organizationService, log),
		Applications:  applicationhandler.New(applicationService, log),
		Stats:         statshandler.New(statsService, log),
		Tokens:        tokens,
		Metrics:       m,
		Logger:        log,
		Health:        health,
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
