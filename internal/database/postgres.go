package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/config"
)

// NewPostgresPool creates and validates a connection pool to the SIS.
func NewPostgresPool(ctx context.Context, sis config.SISConfig, maxConns int32, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(sis.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", sis.Host).
		Str("database", sis.Database).
		Int32("max_conns", maxConns).
		Msg("SIS connected")

	return pool, nil
}
