package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metrics"
)

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS inodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    parent TEXT NOT NULL,
    name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL CHECK (type IN ('file', 'directory', 'symlink')),
    size INTEGER NOT NULL DEFAULT 0,
    mode INTEGER NOT NULL,
    owner TEXT NOT NULL,
    grp TEXT NOT NULL,
    atime TEXT NOT NULL,
    mtime TEXT NOT NULL,
    ctime TEXT NOT NULL,
    symlink_target TEXT
);

CREATE INDEX IF NOT EXISTS idx_inodes_parent ON inodes(parent, name);

CREATE TABLE IF NOT EXISTS xattrs (
    inode_id INTEGER NOT NULL REFERENCES inodes(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    value BLOB NOT NULL,
    PRIMARY KEY (inode_id, name)
);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return nil
}

func count(op string) { metrics.MetadataQueriesTotal.WithLabelValues("sqlite", op).Inc() }

const selectColumns = `
		SELECT id, name, path, type, size, mode, owner, grp,
		       atime, mtime, ctime, symlink_target
		FROM inodes`

func (s *SQLiteStore) Get(ctx context.Context, path string) (*metadata.Metadata, error) {
	count("get")
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE path = ?`, path)
	md, err := scanMetadataRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return md, nil
}

func (s *SQLiteStore) Create(ctx context.Context, md *metadata.Metadata) error {
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

	query := `
		INSERT INTO inodes (
			parent, name, path, type, size, mode, owner, grp,
			atime, mtime, ctime, symlink_target
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(
		ctx,
		query,
		parentOf(md.Path),
		md.Name,
		md.Path,
		md.Type,
		md.Size,
		md.Mode,
		md.Owner,
		md.Group,
		formatTimestamp(md.ATime),
		formatTimestamp(md.MTime),
		formatTimestamp(md.CTime),
		nullString(md.SymlinkTarget),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: inodes.path") {
			return metadata.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inode id: %w", err)
	}
	md.ID = id
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, md *metadata.Metadata) error {
	count("update")
	query := `
		UPDATE inodes
		SET size = ?, mode = ?, owner = ?, grp = ?, atime = ?, mtime = ?, ctime = ?,
		    symlink_target = ?
		WHERE path = ?`

	result, err := s.db.ExecContext(
		ctx,
		query,
		md.Size,
		md.Mode,
		md.Owner,
		md.Group,
		formatTimestamp(md.ATime),
		formatTimestamp(md.MTime),
		formatTimestamp(md.CTime),
		nullString(md.SymlinkTarget),
		md.Path,
	)
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return expectOneRow(result)
}

func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	count("delete")
	result, err := s.db.ExecContext(ctx, `DELETE FROM inodes WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return expectOneRow(result)
}

func (s *SQLiteStore) ListChildren(ctx context.Context, parentPath string) ([]*metadata.Metadata, error) {
	count("list_children")
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE parent = ? AND path != '/'
		ORDER BY name ASC`, parentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := make([]*metadata.Metadata, 0)
	for rows.Next() {
		md, scanErr := scanMetadataRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan child: %w", scanErr)
		}
		children = append(children, md)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return children, nil
}

// Rename rewrites the moved inode and the path prefix of every descendant in
// one transaction.
func (s *SQLiteStore) Rename(ctx context.Context, oldPath, newPath string) error {
	count("rename")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rename: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM inodes WHERE path = ?`, newPath).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check rename target: %w", err)
	}
	if exists > 0 {
		return metadata.ErrAlreadyExists
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE inodes SET path = ?, parent = ?, name = ? WHERE path = ?`,
		newPath, parentOf(newPath), baseName(newPath), oldPath)
	if err != nil {
		return fmt.Errorf("failed to rename inode: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	// descendants: substr is 1-based, so the suffix starts after the old prefix
	_, err = tx.ExecContext(ctx, `
		UPDATE inodes
		SET path = ? || substr(path, ?),
		    parent = ? || substr(parent, ?)
		WHERE substr(path, 1, ?) = ?`,
		newPath, len(oldPath)+1,
		newPath, len(oldPath)+1,
		len(oldPath)+1, oldPath+"/")
	if err != nil {
		return fmt.Errorf("failed to rename descendants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rename: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetXattr(ctx context.Context, id int64, name string) ([]byte, error) {
	count("get_xattr")
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM xattrs WHERE inode_id = ? AND name = ?`, id, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get xattr: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetXattr(ctx context.Context, id int64, name string, value []byte) error {
	count("set_xattr")
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO xattrs (inode_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (inode_id, name) DO UPDATE SET value = excluded.value`, id, name, value)
	if err != nil {
		return fmt.Errorf("failed to set xattr: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveXattr(ctx context.Context, id int64, name string) error {
	count("remove_xattr")
	result, err := s.db.ExecContext(ctx, `DELETE FROM xattrs WHERE inode_id = ? AND name = ?`, id, name)
	if err != nil {
		return fmt.Errorf("failed to remove xattr: %w", err)
	}
	return expectOneRow(result)
}

func (s *SQLiteStore) ListXattrs(ctx context.Context, id int64) ([]string, error) {
	count("list_xattrs")
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM xattrs WHERE inode_id = ? ORDER BY name ASC`, id)
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

func (s *SQLiteStore) Usage(ctx context.Context) (metadata.Usage, error) {
	count("usage")
	var u metadata.Usage
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'file' THEN size ELSE 0 END), 0), COUNT(*)
		FROM inodes`).Scan(&u.Bytes, &u.Inodes)
	if err != nil {
		return metadata.Usage{}, fmt.Errorf("failed to compute usage: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadataRow(row rowScanner) (*metadata.Metadata, error) {
	var md metadata.Metadata
	var symlinkTarget sql.NullString
	var aTime, mTime, cTime string

	if err := row.Scan(
		&md.ID,
		&md.Name,
		&md.Path,
		&md.Type,
		&md.Size,
		&md.Mode,
		&md.Owner,
		&md.Group,
		&aTime,
		&mTime,
		&cTime,
		&symlinkTarget,
	); err != nil {
		return nil, err
	}

	if symlinkTarget.Valid {
		md.SymlinkTarget = &symlinkTarget.String
	}
	md.ATime = parseTimestamp(aTime)
	md.MTime = parseTimestamp(mTime)
	md.CTime = parseTimestamp(cTime)
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

func baseName(path string) string {
	return path[strings.LastIndexByte(path, '/')+1:]
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}
		}
	}
	return parsed
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
