package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and returns a connected pool
// plus a cleanup function.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// createSchema creates the storefront schema used by the repositories.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			price DECIMAL(10,2) NOT NULL CHECK (price >= 0),
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			payment_method TEXT NOT NULL,
			ship_address TEXT NOT NULL,
			ship_city TEXT NOT NULL,
			ship_postal_code TEXT NOT NULL,
			ship_country TEXT NOT NULL,
			items_price DECIMAL(10,2) NOT NULL,
			shipping_price DECIMAL(10,2) NOT NULL,
			tax_price DECIMAL(10,2) NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at TIMESTAMPTZ,
			is_sent BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at TIMESTAMPTZ,
			is_delivered BOOLEAN NOT NULL DEFAULT FALSE,
			delivered_at TIMESTAMPTZ,
			pay_external_id TEXT,
			pay_status TEXT,
			pay_update_time TEXT,
			pay_payer_email TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			price DECIMAL(10,2) NOT NULL CHECK (price > 0),
			qty INTEGER NOT NULL CHECK (qty > 0)
		);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err)
}

// setupRepoTestDB creates a test database with the full schema.
func setupRepoTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	pool, cleanup := setupTestDB(t)
	createSchema(t, pool)
	return pool, cleanup
}
