package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates the pgx connection pool shared by all repositories. The
// object guard opens its own transactions on it, so pool sizing (pool_max_conns
// in the DSN) must leave headroom beyond the HTTP concurrency.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, config)
}
