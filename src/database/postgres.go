package database

import (
	"context"
	"fmt"
	"portfolio/src/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxBeginner is satisfied by *pgxpool.Pool and lets services open the single transaction a run needs.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func SetupDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return Connect(ctx, cfg.Databases.SQL.DSN())
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	// Create connection pool
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v\nPlease ensure the database is running and accessible with the provided credentials", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %v\nPlease check your database configuration and ensure it's running", err)
	}
	return pool, nil
}
