// Package platform opens what a process needs from its configuration: the
// logger, the record store, the event bus, the text generator and the game
// services built on top of them.
package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	"github.com/brinda/clasico/internal/bus"
	"github.com/brinda/clasico/internal/catalog"
	"github.com/brinda/clasico/internal/config"
	"github.com/brinda/clasico/internal/database"
	"github.com/brinda/clasico/internal/engine"
	"github.com/brinda/clasico/internal/fallback"
	"github.com/brinda/clasico/internal/gameplay"
	"github.com/brinda/clasico/internal/generator"
	"github.com/brinda/clasico/internal/handler/health"
	"github.com/brinda/clasico/internal/migrations"
	"github.com/brinda/clasico/internal/records"
	"github.com/brinda/clasico/internal/reward"
)

// NewLogger returns a JSON logger, or a colored text logger when the config
// asks for text.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.TimeOnly,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// Infra is the opened infrastructure. Store is nil in demo mode.
type Infra struct {
	Store  records.Store
	Bus    bus.Bus
	Checks map[string]health.Checker

	closers []func() error
}

// Open connects the record store and the event bus described by cfg. A
// dependency that cannot be reached is logged and replaced: the store by the
// built-in data set, the bus by the in-process broker.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Infra {
	inf := &Infra{Checks: make(map[string]health.Checker)}
	if err := inf.openStore(ctx, cfg, logger); err != nil {
		logger.Warn("record store unavailable, serving built-in data only", "error", err)
	}
	if err := inf.openBus(ctx, cfg, logger); err != nil {
		logger.Warn("event bus unavailable, using in-process bus", "error", err)
	}
	if inf.Bus == nil {
		inf.Bus = bus.NewBroker()
	}
	inf.closers = append(inf.closers, inf.Bus.Close)
	return inf
}

// Close releases everything Open acquired, last opened first.
func (inf *Infra) Close() error {
	var errs []error
	for _, c := range slices.Backward(inf.closers) {
		errs = append(errs, c())
	}
	inf.closers = nil
	return errors.Join(errs...)
}

// openStore sets Store and its health check only once the store is fully
// ready. On error anything it opened is already closed.
func (inf *Infra) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch {
	case cfg.Demo():
		logger.Info("demo mode, serving built-in data only")
		return nil

	case cfg.SupabaseDBURL != "":
		pool, err := database.OpenPostgres(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		if cfg.RunMigrations {
			db := stdlib.OpenDBFromPool(pool)
			err := migrations.Run(db, migrations.Postgres)
			db.Close()
			if err != nil {
				pool.Close()
				return err
			}
		}
		inf.closers = append(inf.closers, func() error { pool.Close(); return nil })
		inf.Store = records.NewPostgresStore(pool)
		inf.Checks["postgres"] = poolChecker{pool}
		logger.Info("connected to postgres")
		return nil

	default:
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		if cfg.RunMigrations {
			if err := migrations.Run(db, migrations.SQLite); err != nil {
				db.Close()
				return err
			}
		}
		inf.closers = append(inf.closers, db.Close)
		inf.Store = records.NewSQLStore(db)
		inf.Checks["sqlite"] = dbChecker{db}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
		return nil
	}
}

// openBus leaves Bus nil when no external bus is configured.
func (inf *Infra) openBus(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	switch {
	case cfg.RedisURL != "":
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		inf.closers = append(inf.closers, rdb.Close)
		inf.Bus = bus.NewRedis(rdb)
		inf.Checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")

	case cfg.AMQPURL != "":
		a, err := bus.DialAMQP(cfg.AMQPURL)
		if err != nil {
			return err
		}
		inf.Bus = a
		inf.Checks["rabbitmq"] = a
		logger.Info("connected to rabbitmq")

	default:
		logger.Info("using in-process event bus")
	}
	return nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// NewGenerator chains the configured text generators, OpenAI first. It
// returns nil when none is configured.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) generator.Generator {
	var chain generator.Chain
	if cfg.OpenAIKey != "" {
		chain = append(chain, generator.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}
	if cfg.GeminiKey != "" {
		g, err := generator.NewGemini(ctx, generator.GeminiConfig{APIKey: cfg.GeminiKey, Model: cfg.GeminiModel})
		if err != nil {
			logger.Warn("gemini unavailable", "error", err)
		} else {
			chain = append(chain, g)
		}
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

// Services are the game components over one Infra.
type Services struct {
	Catalog  *catalog.Catalog
	Engine   *engine.Engine
	Rewards  *reward.Mapper
	Gameplay *gameplay.Service
}

func NewServices(ctx context.Context, cfg *config.Config, inf *Infra, logger *slog.Logger) Services {
	cat := catalog.New(inf.Store, fallback.Default(), logger)
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithTimeout(cfg.GeneratorTimeout),
	}
	if g := NewGenerator(ctx, cfg, logger); g != nil {
		opts = append(opts, engine.WithGenerator(g))
	}
	rewards := reward.NewMapper(inf.Store, logger)
	return Services{
		Catalog:  cat,
		Engine:   engine.New(cat, opts...),
		Rewards:  rewards,
		Gameplay: gameplay.NewService(cat, inf.Store, rewards, inf.Bus, logger),
	}
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

type poolChecker struct{ pool *pgxpool.Pool }

func (p poolChecker) Check(ctx context.Context) error { return p.pool.Ping(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
