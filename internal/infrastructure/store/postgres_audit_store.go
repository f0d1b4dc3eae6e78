package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/example/product-catalog/internal/audit"
)

// PostgresAuditStore implements audit.Store on PostgreSQL. The table is
// append-only: no update or delete statements exist here.
type PostgresAuditStore struct {
	db *sql.DB
}

func NewPostgresAuditStore(db *sql.DB) *PostgresAuditStore {
	return &PostgresAuditStore{db: db}
}

func (s *PostgresAuditStore) Append(ctx context.Context, entry *audit.Entry) error {
	previous, err := marshalNullable(entry.PreviousData)
	if err != nil {
		return err
	}
	next, err := marshalNullable(entry.NewData)
	if err != nil {
		return err
	}
	changes, err := marshalNullable(entry.Changes)
	if err != nil {
		return err
	}
	metadata, err := marshalNullable(entry.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO product_history
			(id, gtin, product_id, action, changed_by, previous_data, new_data, changes, metadata, changed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.GTIN, entry.ProductID, entry.Action, entry.ChangedBy,
		previous, next, changes, metadata, entry.ChangedAt,
	)
	return err
}

func (s *PostgresAuditStore) ListByGTIN(ctx context.Context, gtin string, opts audit.ListOptions) ([]*audit.Entry, error) {
	query := `SELECT id, gtin, product_id, action, changed_by, previous_data, new_data, changes, metadata, changed_at
		 FROM product_history WHERE gtin = $1`
	args := []any{gtin}
	if opts.Action != "" {
		args = append(args, opts.Action)
		query += ` AND action = $2`
	}
	query += ` ORDER BY changed_at DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var previous, next, changes, metadata []byte
		if err := rows.Scan(&e.ID, &e.GTIN, &e.ProductID, &e.Action, &e.ChangedBy,
			&previous, &next, &changes, &metadata, &e.ChangedAt); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(previous, &e.PreviousData); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(next, &e.NewData); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(changes, &e.Changes); err != nil {
			return nil, err
		}
		if err := unmarshalNullable(metadata, &e.Metadata); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *PostgresAuditStore) CountByGTIN(ctx context.Context, gtin string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM product_history WHERE gtin = $1`, gtin,
	).Scan(&count)
	return count, err
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return nil, nil
		}
	case map[string]audit.Change:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalNullable(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
