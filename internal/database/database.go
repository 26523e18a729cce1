package database

import (
	"context"
	"fmt"
	"time"

	"orderdesk/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

const applicationName = "orderdesk"

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
// Statements are traced through the logger at debug level.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   queryLogger(logger.With().Str("component", "pgx").Logger()),
		LogLevel: traceLevel(logger.GetLevel()),
	}

	log := logger.With().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger()
	log.Info().
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("database connection pool ready")
	return pool, nil
}

func queryLogger(logger zerolog.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		var ev *zerolog.Event
		switch level {
		case tracelog.LogLevelError:
			ev = logger.Error()
		case tracelog.LogLevelWarn:
			ev = logger.Warn()
		case tracelog.LogLevelInfo:
			ev = logger.Info()
		default:
			ev = logger.Debug()
		}
		ev.Fields(data).Msg(msg)
	})
}

// traceLevel keeps statement tracing off unless the logger is at debug.
func traceLevel(level zerolog.Level) tracelog.LogLevel {
	if level <= zerolog.DebugLevel {
		return tracelog.LogLevelDebug
	}
	return tracelog.LogLevelWarn
}
