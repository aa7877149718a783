package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ebogdum/jfsio/metadata"
)

// Get retrieves metadata for a file or directory by path
func (s *PostgresStore) Get(ctx context.Context, path string) (*metadata.Metadata, error) {
	count("get")
	md, err := scanInode(s.db.QueryRowContext(ctx, _SQL_GET_INODE_BY_PATH, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return md, nil
}

// Create creates a new inode entry
func (s *PostgresStore) Create(ctx context.Context, md *metadata.Metadata) error {
	count("create")
	now := time.Now().UTC()
	if md.ATime.IsZero() {
		md.ATime = now
	}
	if md.MTime.IsZero() {
		md.MTime = now
	}
	if md.CTime.IsZero() {
		md.CTime = now
	}

	err := s.db.QueryRowContext(ctx, _SQL_CREATE_INODE,
		parentOf(md.Path),
		md.Name,
		md.Path,
		md.Type,
		md.Size,
		int64(md.Mode),
		md.Owner,
		md.Group,
		md.ATime,
		md.MTime,
		md.CTime,
		nullString(md.SymlinkTarget),
	).Scan(&md.ID)
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row
		if errors.Is(err, sql.ErrNoRows) {
			return metadata.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create metadata: %w", err)
	}
	return nil
}

// Update updates an existing inode
func (s *PostgresStore) Update(ctx context.Context, md *metadata.Metadata) error {
	count("update")
	result, err := s.db.ExecContext(ctx, _SQL_UPDATE_INODE,
		md.Size,
		int64(md.Mode),
		md.Owner,
		md.Group,
		md.ATime,
		md.MTime,
		md.CTime,
		nullString(md.SymlinkTarget),
		md.Path,
	)
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes an inode by path; its xattrs go with it through the foreign key.
func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	count("delete")
	result, err := s.db.ExecContext(ctx, _SQL_DELETE_INODE, path)
	if err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return expectOneRow(result)
}

// ListChildren lists all direct children of a directory
func (s *PostgresStore) ListChildren(ctx context.Context, parentPath string) ([]*metadata.Metadata, error) {
	count("list_children")
	rows, err := s.db.QueryContext(ctx, _SQL_LIST_CHILDREN, parentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := make([]*metadata.Metadata, 0)
	for rows.Next() {
		md, err := scanInode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		children = append(children, md)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return children, nil
}

// Rename moves an inode and its descendants in one transaction
func (s *PostgresStore) Rename(ctx context.Context, oldPath, newPath string) error {
	count("rename")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rename: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, _SQL_PATH_EXISTS, newPath).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check rename target: %w", err)
	}
	if exists {
		return metadata.ErrAlreadyExists
	}

	result, err := tx.ExecContext(ctx, _SQL_RENAME_INODE,
		newPath, parentOf(newPath), newPath[strings.LastIndexByte(newPath, '/')+1:], oldPath)
	if err != nil {
		return fmt.Errorf("failed to rename inode: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	prefix := oldPath + "/"
	if _, err := tx.ExecContext(ctx, _SQL_RENAME_DESCENDANTS,
		newPath, len(oldPath)+1, len(prefix), prefix); err != nil {
		return fmt.Errorf("failed to rename descendants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rename: %w", err)
	}
	return nil
}

// Usage reports total file bytes and inode count
func (s *PostgresStore) Usage(ctx context.Context) (metadata.Usage, error) {
	count("usage")
	var u metadata.Usage
	if err := s.db.QueryRowContext(ctx, _SQL_USAGE).Scan(&u.Bytes, &u.Inodes); err != nil {
		return metadata.Usage{}, fmt.Errorf("failed to compute usage: %w", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInode(row rowScanner) (*metadata.Metadata, error) {
	var md metadata.Metadata
	var mode int64
	var symlinkTarget sql.NullString

	err := row.Scan(
		&md.ID,
		&md.Name,
		&md.Path,
		&md.Type,
		&md.Size,
		&mode,
		&md.Owner,
		&md.Group,
		&md.ATime,
		&md.MTime,
		&md.CTime,
		&symlinkTarget,
	)
	if err != nil {
		return nil, err
	}

	md.Mode = uint32(mode)
	if symlinkTarget.Valid {
		md.SymlinkTarget = &symlinkTarget.String
	}
	return &md, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return metadata.ErrNotFound
	}
	return nil
}

func parentOf(path string) string {
	if path == "/" {
		return ""
	}
	return metadata.ParentPath(path)
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
