package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebogdum/jfsio/metadata"
)

func (s *PostgresStore) GetXattr(ctx context.Context, id int64, name string) ([]byte, error) {
	count("get_xattr")
	var value []byte
	if err := s.db.QueryRowContext(ctx, _SQL_GET_XATTR, id, name).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get xattr: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) SetXattr(ctx context.Context, id int64, name string, value []byte) error {
	count("set_xattr")
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, _SQL_SET_XATTR, id, name, value); err != nil {
		return fmt.Errorf("failed to set xattr: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveXattr(ctx context.Context, id int64, name string) error {
	count("remove_xattr")
	result, err := s.db.ExecContext(ctx, _SQL_REMOVE_XATTR, id, name)
	if err != nil {
		return fmt.Errorf("failed to remove xattr: %w", err)
	}
	return expectOneRow(result)
}

func (s *PostgresStore) ListXattrs(ctx context.Context, id int64) ([]string, error) {
	count("list_xattrs")
	rows, err := s.db.QueryContext(ctx, _SQL_LIST_XATTRS, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list xattrs: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan xattr name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
