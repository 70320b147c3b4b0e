package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/logging"
)

// ApplicationName identifies CRM sessions in pg_stat_activity.
const ApplicationName = "ekaya-crm"

const (
	defaultMaxConns        = 25
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
)

// DB is the CRM's record store connection pool.
type DB struct {
	*pgxpool.Pool
}

// PoolOptions sizes the pool. Zero fields take the package defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PoolStats is a point-in-time view of pool usage.
type PoolStats struct {
	Max      int32 `json:"max"`
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
}

// poolConfig parses dsn, which may be a URL or a key=value string, and applies opts.
func poolConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	pc.MaxConns = orDefault(opts.MaxConns, defaultMaxConns)
	pc.MinConns = min(opts.MinConns, pc.MaxConns)
	pc.MaxConnLifetime = orDefault(opts.MaxConnLifetime, defaultMaxConnLifetime)
	pc.MaxConnIdleTime = orDefault(opts.MaxConnIdleTime, defaultMaxConnIdleTime)

	if _, ok := pc.ConnConfig.RuntimeParams["application_name"]; !ok {
		pc.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return pc, nil
}

func orDefault[T int32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

// Open connects to the record store and pings it before returning.
func Open(ctx context.Context, dsn string, opts PoolOptions, logger *zap.Logger) (*DB, error) {
	pc, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", pc.ConnConfig.Database, err)
	}

	logger.Info("Connected to database",
		zap.String("dsn", logging.SanitizeConnectionString(dsn)),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("max_conns", pc.MaxConns),
		zap.Int32("min_conns", pc.MinConns))
	return &DB{Pool: pool}, nil
}

// PoolStats reports how many connections are open and in use.
func (db *DB) PoolStats() PoolStats {
	s := db.Pool.Stat()
	return PoolStats{
		Max:      s.MaxConns(),
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
	}
}

// Close closes every connection in the pool.
func (db *DB) Close() {
	db.Pool.Close()
}
