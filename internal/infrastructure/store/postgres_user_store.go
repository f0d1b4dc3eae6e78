package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/product-catalog/internal/catalog"
)

// PostgresUserStore implements catalog.UserStore on PostgreSQL.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Get(ctx context.Context, id string) (*catalog.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, password_hash, is_active, created_at
		 FROM users WHERE id = $1`, id))
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*catalog.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, password_hash, is_active, created_at
		 FROM users WHERE email = $1`, email))
}

func (s *PostgresUserStore) Insert(ctx context.Context, u *catalog.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, u.Name, u.Role, u.PasswordHash, u.IsActive, u.CreatedAt,
	)
	return err
}

func (s *PostgresUserStore) List(ctx context.Context) ([]*catalog.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, name, role, password_hash, is_active, created_at
		 FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*catalog.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*catalog.User, error) {
	var u catalog.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
