// internal/core/ports/database.go
package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Database is the subset of the Postgres wrapper used outside the db adapter
// (health checks and the seeder).
type Database interface {
	Close()
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
	Transaction(ctx context.Context, fn func(pgx.Tx) error) error
}
