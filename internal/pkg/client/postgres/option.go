package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option tweaks the pool configuration before the pool is created.
type Option func(*pgxpool.Config)

// WithMaxConns caps the number of pooled connections.
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) {
		cfg.MaxConns = n
	}
}

// WithConnectTimeout bounds the time spent establishing a single connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.ConnectTimeout = d
	}
}
