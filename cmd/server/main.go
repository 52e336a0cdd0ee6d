package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/focusnest/gamification-service/internal/config"
	"github.com/focusnest/gamification-service/internal/engine"
	"github.com/focusnest/gamification-service/internal/events"
	"github.com/focusnest/gamification-service/internal/gamification"
	"github.com/focusnest/gamification-service/internal/httpapi"
	"github.com/focusnest/gamification-service/internal/metrics"
	"github.com/focusnest/gamification-service/internal/scheduler"
	sharedauth "github.com/focusnest/gamification-service/shared/auth"
	"github.com/focusnest/gamification-service/shared/logging"
	sharedserver "github.com/focusnest/gamification-service/shared/server"
)

const serviceName = "gamification-service"

type publisher interface {
	gamification.EventPublisher
	Close() error
}

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLoggerWithLevel(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	rules, err := cfg.EngineRules()
	if err != nil {
		panic(fmt.Errorf("rules error: %w", err))
	}
	eng, err := engine.New(rules)
	if err != nil {
		panic(fmt.Errorf("engine error: %w", err))
	}

	repo, closeStore, err := openRepository(ctx, cfg, logger)
	if err != nil {
		panic(err)
	}

	pub, err := newPublisher(cfg)
	if err != nil {
		panic(err)
	}

	svc, err := gamification.NewService(repo, eng, gamification.NewSystemClock(), gamification.NewUUIDGenerator(), pub, logger)
	if err != nil {
		panic(fmt.Errorf("service error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     sharedauth.Mode(cfg.Auth.Mode),
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter(serviceName, func(r chi.Router) {
		r.Handle("/metrics", metrics.Handler())

		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, svc, logger)
		})
	})

	hooks := []func(context.Context) error{}
	if cfg.Jobs.Enabled {
		jobs, err := scheduler.New(svc, scheduler.Config{
			LeaderboardRefreshInterval: cfg.Jobs.LeaderboardRefreshInterval,
			ChallengeSweepInterval:     cfg.Jobs.ChallengeSweepInterval,
			SnapshotSize:               cfg.Jobs.SnapshotSize,
			Location:                   eng.Location(),
		}, logger)
		if err != nil {
			panic(fmt.Errorf("scheduler error: %w", err))
		}
		jobs.Start()
		hooks = append(hooks, jobs.Shutdown)
	}
	hooks = append(hooks,
		func(context.Context) error { return pub.Close() },
		func(context.Context) error { closeStore(); return nil },
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           sharedserver.WithCORS(router, cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger, hooks...); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

// openRepository builds the configured store and returns a function releasing its resources.
func openRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (gamification.Repository, func(), error) {
	switch cfg.DataStore {
	case "firestore":
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		logger.Info("using firestore store", slog.String("project", cfg.GCPProjectID), slog.Bool("emulator", cfg.Firestore.EmulatorHost != ""))
		return gamification.NewFirestoreRepository(client), func() { _ = client.Close() }, nil
	case "postgres":
		if err := gamification.MigratePostgres(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres ping: %w", err)
		}
		logger.Info("using postgres store")
		return gamification.NewPostgresRepository(pool), pool.Close, nil
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		return gamification.NewMemoryRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported datastore %q", cfg.DataStore)
	}
}

func newPublisher(cfg config.Config) (publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewMemoryPublisher(), nil
	}
	pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	return pub, nil
}
