package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres establishes a connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// EnsureSchema creates the catalog tables when they do not exist yet. The
// unique index on gtin is what turns a concurrent duplicate create into a
// conflict for the losing writer.
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			gtin TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			brand TEXT NOT NULL,
			manufacturer TEXT NOT NULL,
			net_weight DOUBLE PRECISION NOT NULL,
			net_weight_unit TEXT NOT NULL,
			status TEXT NOT NULL,
			created_by TEXT NOT NULL,
			approved_by TEXT,
			approved_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_status ON products (status)`,
		`CREATE INDEX IF NOT EXISTS idx_products_created_by ON products (created_by)`,
		`CREATE TABLE IF NOT EXISTS product_history (
			id UUID PRIMARY KEY,
			gtin TEXT NOT NULL,
			product_id TEXT NOT NULL,
			action TEXT NOT NULL,
			changed_by TEXT NOT NULL,
			previous_data JSONB,
			new_data JSONB,
			changes JSONB,
			metadata JSONB,
			changed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_product_history_gtin ON product_history (gtin, changed_at DESC)`,
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
