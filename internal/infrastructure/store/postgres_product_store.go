package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/example/product-catalog/internal/catalog"
)

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

// PostgresProductStore implements catalog.ProductStore on PostgreSQL.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

func (s *PostgresProductStore) Insert(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products
			(id, gtin, name, description, brand, manufacturer, net_weight, net_weight_unit,
			 status, created_by, approved_by, approved_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.GTIN, p.Name, p.Description, p.Brand, p.Manufacturer,
		p.NetWeight, p.NetWeightUnit, p.Status, p.CreatedBy,
		nullString(p.ApprovedBy), p.ApprovedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return catalog.ErrDuplicateGTIN
		}
		return err
	}
	return nil
}

func (s *PostgresProductStore) GetByGTIN(ctx context.Context, gtin string) (*catalog.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, gtin, name, description, brand, manufacturer, net_weight, net_weight_unit,
			status, created_by, approved_by, approved_at, created_at, updated_at
		 FROM products WHERE gtin = $1`,
		gtin,
	)
	return scanProduct(row)
}

func (s *PostgresProductStore) Update(ctx context.Context, p *catalog.Product) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET
			name = $2, description = $3, brand = $4, manufacturer = $5,
			net_weight = $6, net_weight_unit = $7, status = $8,
			approved_by = $9, approved_at = $10, updated_at = $11
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Brand, p.Manufacturer,
		p.NetWeight, p.NetWeightUnit, p.Status,
		nullString(p.ApprovedBy), p.ApprovedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *PostgresProductStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *PostgresProductStore) List(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	query := `SELECT id, gtin, name, description, brand, manufacturer, net_weight, net_weight_unit,
			status, created_by, approved_by, approved_at, created_at, updated_at
		 FROM products WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $1`
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		if len(args) == 1 {
			query += ` AND created_by = $1`
		} else {
			query += ` AND created_by = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var p catalog.Product
	var approvedBy sql.NullString
	err := row.Scan(
		&p.ID, &p.GTIN, &p.Name, &p.Description, &p.Brand, &p.Manufacturer,
		&p.NetWeight, &p.NetWeightUnit, &p.Status, &p.CreatedBy,
		&approvedBy, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ApprovedBy = approvedBy.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
