package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metrics"
)

// RedisStore keeps one JSON document per inode, a set of child paths per
// directory and a hash of extended attributes per inode id.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisStore(opts *redis.Options, prefix string, logger *zap.Logger) (*RedisStore, error) {
	if prefix == "" {
		prefix = "jfs:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis metadata store: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

// NewRedisStoreFromURL accepts redis://[:password@]host:port/db.
func NewRedisStoreFromURL(url, prefix string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStore(opts, prefix, logger)
}

// Client exposes the underlying connection so other components can share it.
func (s *RedisStore) Client() *redis.Client { return s.client }

func count(op string) { metrics.MetadataQueriesTotal.WithLabelValues("redis", op).Inc() }

func (s *RedisStore) Get(ctx context.Context, path string) (*metadata.Metadata, error) {
	count("get")
	return s.get(ctx, path)
}

func (s *RedisStore) get(ctx context.Context, path string) (*metadata.Metadata, error) {
	raw, err := s.client.Get(ctx, s.metadataKey(path)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	var md metadata.Metadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &md, nil
}

func (s *RedisStore) Create(ctx context.Context, md *metadata.Metadata) error {
	count("create")
	stampTimes(md)

	id, err := s.client.Incr(ctx, s.sequenceKey("inode")).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate metadata id: %w", err)
	}
	md.ID = id

	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	stored, err := s.client.SetNX(ctx, s.metadataKey(md.Path), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}
	if !stored {
		return metadata.ErrAlreadyExists
	}

	if md.Path != "/" {
		if err := s.client.SAdd(ctx, s.childrenKey(metadata.ParentPath(md.Path)), md.Path).Err(); err != nil {
			return fmt.Errorf("failed to index child metadata: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, md *metadata.Metadata) error {
	count("update")
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	// XX: only overwrite an existing key
	updated, err := s.client.SetXX(ctx, s.metadataKey(md.Path), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	if !updated {
		return metadata.ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	count("delete")
	md, err := s.get(ctx, path)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.metadataKey(path), s.childrenKey(path), s.xattrKey(md.ID))
	pipe.SRem(ctx, s.childrenKey(metadata.ParentPath(path)), path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

func (s *RedisStore) ListChildren(ctx context.Context, parentPath string) ([]*metadata.Metadata, error) {
	count("list_children")
	paths, err := s.client.SMembers(ctx, s.childrenKey(parentPath)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list child paths: %w", err)
	}

	children := make([]*metadata.Metadata, 0, len(paths))
	for _, path := range paths {
		md, getErr := s.get(ctx, path)
		if getErr != nil {
			if errors.Is(getErr, metadata.ErrNotFound) {
				continue
			}
			return nil, getErr
		}
		children = append(children, md)
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

// Rename walks the subtree through the children sets and rewrites every
// document in a single MULTI block.
func (s *RedisStore) Rename(ctx context.Context, oldPath, newPath string) error {
	count("rename")
	root, err := s.get(ctx, oldPath)
	if err != nil {
		return err
	}
	exists, err := s.client.Exists(ctx, s.metadataKey(newPath)).Result()
	if err != nil {
		return fmt.Errorf("failed to check rename target: %w", err)
	}
	if exists > 0 {
		return metadata.ErrAlreadyExists
	}

	moved := []*metadata.Metadata{root}
	for i := 0; i < len(moved); i++ {
		if !moved[i].IsDir() {
			continue
		}
		paths, err := s.client.SMembers(ctx, s.childrenKey(moved[i].Path)).Result()
		if err != nil {
			return fmt.Errorf("failed to list child paths: %w", err)
		}
		for _, p := range paths {
			md, err := s.get(ctx, p)
			if err != nil {
				if errors.Is(err, metadata.ErrNotFound) {
					continue
				}
				return err
			}
			moved = append(moved, md)
		}
	}

	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, s.childrenKey(metadata.ParentPath(oldPath)), oldPath)
	pipe.SAdd(ctx, s.childrenKey(metadata.ParentPath(newPath)), newPath)
	for _, md := range moved {
		oldKey := md.Path
		md.Path = metadata.Rebase(oldKey, oldPath, newPath)
		if oldKey == oldPath {
			md.Name = newPath[strings.LastIndexByte(newPath, '/')+1:]
		}
		raw, err := json.Marshal(md)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		pipe.Del(ctx, s.metadataKey(oldKey))
		pipe.Set(ctx, s.metadataKey(md.Path), raw, 0)
		if md.IsDir() {
			pipe.Del(ctx, s.childrenKey(oldKey))
		}
		if oldKey != oldPath {
			pipe.SAdd(ctx, s.childrenKey(metadata.ParentPath(md.Path)), md.Path)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rename metadata: %w", err)
	}
	return nil
}

func (s *RedisStore) GetXattr(ctx context.Context, id int64, name string) ([]byte, error) {
	count("get_xattr")
	value, err := s.client.HGet(ctx, s.xattrKey(id), name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get xattr: %w", err)
	}
	return value, nil
}

func (s *RedisStore) SetXattr(ctx context.Context, id int64, name string, value []byte) error {
	count("set_xattr")
	if err := s.client.HSet(ctx, s.xattrKey(id), name, value).Err(); err != nil {
		return fmt.Errorf("failed to set xattr: %w", err)
	}
	return nil
}

func (s *RedisStore) RemoveXattr(ctx context.Context, id int64, name string) error {
	count("remove_xattr")
	removed, err := s.client.HDel(ctx, s.xattrKey(id), name).Result()
	if err != nil {
		return fmt.Errorf("failed to remove xattr: %w", err)
	}
	if removed == 0 {
		return metadata.ErrNotFound
	}
	return nil
}

func (s *RedisStore) ListXattrs(ctx context.Context, id int64) ([]string, error) {
	count("list_xattrs")
	names, err := s.client.HKeys(ctx, s.xattrKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list xattrs: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Usage scans every inode document. It is meant for statvfs on small
// volumes, not for hot paths.
func (s *RedisStore) Usage(ctx context.Context) (metadata.Usage, error) {
	count("usage")
	var u metadata.Usage
	iter := s.client.Scan(ctx, 0, s.prefix+"md:*", 256).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return metadata.Usage{}, fmt.Errorf("failed to read metadata: %w", err)
		}
		var md metadata.Metadata
		if err := json.Unmarshal(raw, &md); err != nil {
			return metadata.Usage{}, fmt.Errorf("failed to decode metadata: %w", err)
		}
		u.Inodes++
		if md.Type == metadata.TypeFile {
			u.Bytes += md.Size
		}
	}
	if err := iter.Err(); err != nil {
		return metadata.Usage{}, fmt.Errorf("failed to scan metadata: %w", err)
	}
	return u, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func stampTimes(md *metadata.Metadata) {
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
}

func (s *RedisStore) metadataKey(path string) string {
	return s.prefix + "md:" + path
}

func (s *RedisStore) childrenKey(path string) string {
	return s.prefix + "children:" + path
}

func (s *RedisStore) xattrKey(id int64) string {
	return fmt.Sprintf("%sxattr:%d", s.prefix, id)
}

func (s *RedisStore) sequenceKey(name string) string {
	return s.prefix + "seq:" + name
}
