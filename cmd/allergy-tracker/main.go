package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/allergytrack/allergy-tracker/docs"
	"github.com/allergytrack/allergy-tracker/internal/api"
	"github.com/allergytrack/allergy-tracker/internal/api/handler"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
	"github.com/allergytrack/allergy-tracker/internal/core/service"
	"github.com/allergytrack/allergy-tracker/internal/infrastructure/db/mongo"
	"github.com/allergytrack/allergy-tracker/internal/infrastructure/db/mysql"
	"github.com/allergytrack/allergy-tracker/internal/infrastructure/db/redis"
	"github.com/allergytrack/allergy-tracker/internal/infrastructure/messaging/kafka"
	"github.com/allergytrack/allergy-tracker/internal/infrastructure/queue"
	"github.com/allergytrack/allergy-tracker/internal/pkg/config"
	"github.com/allergytrack/allergy-tracker/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title						Allergy Tracker API
// @version					1.0
// @description				Tracks users, allergies and the allergies assigned to each user.
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Type "Bearer" followed by a space and a JWT.
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "allergy-tracker",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	dbCfg := mysql.Config{
		DSN:             cfg.MySQL.DSN,
		Addr:            cfg.MySQL.Addr(),
		User:            cfg.MySQL.User,
		Password:        cfg.MySQL.Password,
		Database:        cfg.MySQL.Database,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
	}
	db, err := mysql.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer closeSQL(db, log)

	if err := mysql.Migrate(ctx, db, cfg.MySQL.MigrateRetries); err != nil {
		return err
	}
	log.Info().Str("database", dbCfg.DatabaseName()).Msg("mysql schema ready")

	checks := []handler.DependencyCheck{{Name: "mysql", Ping: db.PingContext}}

	var cache ports.StatsCache
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(client, log)
		statsCache := redis.NewStatsCache(client)
		cache = statsCache
		checks = append(checks, handler.DependencyCheck{Name: "redis", Ping: statsCache.Ping})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("stats cache enabled")
	}

	var (
		sinks []queue.Sink
		audit ports.AuditRepository
	)
	if cfg.Mongo.URI != "" {
		store, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer closeMongo(store, log)
		repo := mongo.NewAuditRepository(store.DB)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		audit = repo
		sinks = append(sinks, queue.AuditSink(repo))
		checks = append(checks, handler.DependencyCheck{Name: "mongo", Ping: store.Ping})
		log.Info().Str("database", cfg.Mongo.Database).Msg("audit log enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(kafka.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("kafka publisher close failed")
			}
		}()
		sinks = append(sinks, queue.PublisherSink(publisher))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("change events publishing enabled")
	}

	// Workers outlive the HTTP server and drain their queues on shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, cfg.Events.QueueSize, sinks, log)
	dispatcher.Start(workerCtx)
	defer func() {
		dispatcher.Close()
		dispatcher.Wait()
		stopWorkers()
	}()

	hooks := service.SideEffects{Cache: cache, Notifier: dispatcher}
	users := mysql.NewUserRepository(db, log)
	allergies := mysql.NewAllergyRepository(db, log)
	links := mysql.NewRelationshipRepository(db, log)

	e := api.NewRouter(api.Services{
		Users:         service.NewUserService(users, links, hooks, log),
		Allergies:     service.NewAllergyService(allergies, hooks, log),
		Relationships: service.NewRelationshipService(users, links, hooks, log),
		Stats:         service.NewStatsService(mysql.NewStatsRepository(db), cache, cfg.Redis.StatsCacheTTL, log),
		Audit:         audit,
	}, api.Options{
		Logger:               log,
		JWTSecret:            cfg.JWTSecret,
		AllowedOrigins:       cfg.CORSAllowedOrigins,
		RateLimitRPS:         cfg.RateLimitRPS,
		RateLimitBurst:       cfg.RateLimitBurst,
		ExposeInternalErrors: cfg.IsDevelopment(),
		DBName:               dbCfg.DatabaseName(),
		Checks:               checks,
	})
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, write endpoints are unauthenticated")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("allergy tracker listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func closeSQL(db *sql.DB, log zerolog.Logger) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("mysql close failed")
	}
}

func closeRedis(client *goredis.Client, log zerolog.Logger) {
	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
}

func closeMongo(store *mongo.Store, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}
