package postgres

// SQL query constants for metadata operations

const (
	_SQL_INODE_COLUMNS = `
		SELECT id, name, path, type, size, mode, owner, grp,
		       atime, mtime, ctime, symlink_target
		FROM inodes`

	_SQL_GET_INODE_BY_PATH = _SQL_INODE_COLUMNS + `
		WHERE path = $1`

	_SQL_CREATE_INODE = `
		INSERT INTO inodes
		(parent, name, path, type, size, mode, owner, grp, atime, mtime, ctime, symlink_target)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (path) DO NOTHING
		RETURNING id`

	_SQL_UPDATE_INODE = `
		UPDATE inodes
		SET size = $1, mode = $2, owner = $3, grp = $4, atime = $5, mtime = $6,
		    ctime = $7, symlink_target = $8
		WHERE path = $9`

	_SQL_DELETE_INODE = `
		DELETE FROM inodes
		WHERE path = $1`

	_SQL_LIST_CHILDREN = _SQL_INODE_COLUMNS + `
		WHERE parent = $1 AND path != '/'
		ORDER BY name ASC`

	_SQL_PATH_EXISTS = `
		SELECT EXISTS (SELECT 1 FROM inodes WHERE path = $1)`

	_SQL_RENAME_INODE = `
		UPDATE inodes
		SET path = $1, parent = $2, name = $3
		WHERE path = $4`

	// $2 is the 1-based offset of the separator following the old prefix
	_SQL_RENAME_DESCENDANTS = `
		UPDATE inodes
		SET path = $1 || substr(path, $2),
		    parent = $1 || substr(parent, $2)
		WHERE left(path, $3) = $4`

	_SQL_GET_XATTR = `
		SELECT value FROM xattrs WHERE inode_id = $1 AND name = $2`

	_SQL_SET_XATTR = `
		INSERT INTO xattrs (inode_id, name, value) VALUES ($1, $2, $3)
		ON CONFLICT (inode_id, name) DO UPDATE SET value = EXCLUDED.value`

	_SQL_REMOVE_XATTR = `
		DELETE FROM xattrs WHERE inode_id = $1 AND name = $2`

	_SQL_LIST_XATTRS = `
		SELECT name FROM xattrs WHERE inode_id = $1 ORDER BY name ASC`

	_SQL_USAGE = `
		SELECT COALESCE(SUM(CASE WHEN type = 'file' THEN size ELSE 0 END), 0), COUNT(*)
		FROM inodes`
)
