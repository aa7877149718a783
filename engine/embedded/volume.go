package embedded

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/backends"
	"github.com/ebogdum/jfsio/backends/localfs"
	"github.com/ebogdum/jfsio/backends/memory"
	"github.com/ebogdum/jfsio/locks"
	"github.com/ebogdum/jfsio/metadata"
	memmeta "github.com/ebogdum/jfsio/metadata/memory"
	"github.com/ebogdum/jfsio/metadata/postgres"
	redismeta "github.com/ebogdum/jfsio/metadata/redis"
	"github.com/ebogdum/jfsio/metadata/sqlite"
	"github.com/ebogdum/jfsio/metrics"
)

const (
	maxSymlinkHops = 40
	maxNameLen     = 255
	maxOwnerLen    = 48 // keeps an encoded stat within the 130 byte caller buffer
	dirSize        = 4096
	lockInterval   = 10 * time.Millisecond
)

// volume is one mounted file system. Sessions initialized with the same
// name and stores share it.
type volume struct {
	mu     sync.Mutex
	name   string
	opts   options
	meta   metadata.Store
	data   backends.Storage
	locker locks.Manager
	logger *zap.Logger
	access *zap.Logger // nil unless accessLog is set

	inodes map[int64]*inode // content of open files
	refs   int

	cancel context.CancelFunc
	done   chan struct{}
}

// inode is the in-memory content of a file with at least one open
// descriptor.
type inode struct {
	id       int64
	path     string
	data     []byte
	mtime    time.Time
	refs     int
	dirty    bool
	unlinked bool
}

func openVolume(name string, opts options, owner, group string, logger *zap.Logger) (*volume, error) {
	if !opts.Debug && logger.Core().Enabled(zap.DebugLevel) {
		logger = logger.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}
	v := &volume{
		name:   name,
		opts:   opts,
		logger: logger.With(zap.String("volume", name)),
		inodes: make(map[int64]*inode),
	}

	if err := v.openMeta(); err != nil {
		return nil, err
	}
	if err := v.openData(); err != nil {
		v.meta.Close()
		return nil, err
	}
	if opts.AccessLog != "" {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{opts.AccessLog}
		cfg.Sampling = nil
		access, err := cfg.Build()
		if err != nil {
			v.closeStores()
			return nil, fmt.Errorf("failed to open access log %s: %w", opts.AccessLog, err)
		}
		v.access = access.With(zap.String("volume", name))
	}
	if err := v.ensureRoot(owner, group); err != nil {
		v.closeStores()
		return nil, err
	}

	if opts.Writeback {
		ctx, cancel := context.WithCancel(context.Background())
		v.cancel = cancel
		v.done = make(chan struct{})
		v.startWriteback(ctx, opts.WritebackInterval)
	}
	return v, nil
}

func (v *volume) openMeta() error {
	uri := v.opts.Meta
	switch {
	case uri == "" || uri == "memory://":
		v.meta = memmeta.NewMemoryStore(v.logger)
		v.locker = locks.NewLocalManager()
	case strings.HasPrefix(uri, "sqlite3://"):
		store, err := sqlite.NewSQLiteStore(strings.TrimPrefix(uri, "sqlite3://"), v.logger)
		if err != nil {
			return err
		}
		v.meta = store
		v.locker = locks.NewLocalManager()
	case strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://"):
		store, err := redismeta.NewRedisStoreFromURL(uri, v.name+":", v.logger)
		if err != nil {
			return err
		}
		locker, err := locks.NewRedisManager(store.Client(), v.name+":", v.opts.PutTimeout, v.logger)
		if err != nil {
			store.Close()
			return err
		}
		v.meta = store
		v.locker = locker
	case strings.HasPrefix(uri, "postgres://") || strings.HasPrefix(uri, "postgresql://"):
		store, err := postgres.NewPostgresStore(uri, v.logger)
		if err != nil {
			return err
		}
		v.meta = store
		v.locker = locks.NewLocalManager()
	default:
		return fmt.Errorf("unsupported metadata engine %q", uri)
	}
	return nil
}

func (v *volume) openData() error {
	var data backends.Storage
	switch bucket := v.opts.Bucket; {
	case bucket == "" || bucket == "memory://":
		data = memory.NewMemoryAdapter()
	default:
		adapter, err := localfs.NewLocalFSAdapter(strings.TrimPrefix(bucket, "file://"))
		if err != nil {
			return err
		}
		data = adapter
	}
	if limit := v.opts.uploadBytesPerSecond(); limit > 0 {
		data = backends.NewThrottled(data, limit)
	}
	v.data = data
	return nil
}

func (v *volume) ensureRoot(owner, group string) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.opts.GetTimeout)
	defer cancel()
	if _, err := v.meta.Get(ctx, "/"); err == nil {
		return nil
	} else if !errors.Is(err, metadata.ErrNotFound) {
		return fmt.Errorf("failed to read root inode: %w", err)
	}
	root := &metadata.Metadata{
		Name:  "",
		Path:  "/",
		Type:  metadata.TypeDirectory,
		Mode:  0o777,
		Owner: owner,
		Group: group,
	}
	if err := v.meta.Create(ctx, root); err != nil && !errors.Is(err, metadata.ErrAlreadyExists) {
		return fmt.Errorf("failed to create root inode: %w", err)
	}
	v.logger.Info("Created volume root")
	return nil
}

// startWriteback periodically persists dirty buffers of open files.
func (v *volume) startWriteback(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(v.done)
		v.logger.Info("Starting writeback worker", zap.Duration("interval", interval))

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				v.mu.Lock()
				v.persistAll("writeback")
				v.mu.Unlock()
			case <-ctx.Done():
				v.logger.Info("Writeback worker shutting down")
				return
			}
		}
	}()
}

// shutdown flushes pending data and releases the stores. The caller no
// longer holds any session on v.
func (v *volume) shutdown() {
	if v.cancel != nil {
		v.cancel()
		<-v.done
	}
	v.mu.Lock()
	v.persistAll("term")
	v.inodes = make(map[int64]*inode)
	v.mu.Unlock()
	v.closeStores()
	v.logger.Info("Volume closed")
}

func (v *volume) closeStores() {
	if v.access != nil {
		_ = v.access.Sync()
	}
	if v.locker != nil {
		if err := v.locker.Close(); err != nil {
			v.logger.Warn("Failed to close lock manager", zap.Error(err))
		}
	}
	if v.data != nil {
		if err := v.data.Close(); err != nil {
			v.logger.Warn("Failed to close data backend", zap.Error(err))
		}
	}
	if err := v.meta.Close(); err != nil {
		v.logger.Warn("Failed to close metadata store", zap.Error(err))
	}
}

func (v *volume) getCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), v.opts.GetTimeout)
}

func (v *volume) putCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), v.opts.PutTimeout)
}

func contentKey(id int64) string {
	return fmt.Sprintf("chunks/%d", id)
}

// errno maps a store error to a negative status.
func (v *volume) errno(op string, err error) int32 {
	switch {
	case errors.Is(err, metadata.ErrNotFound), errors.Is(err, backends.ErrNotFound):
		return -int32(syscall.ENOENT)
	case errors.Is(err, metadata.ErrAlreadyExists):
		return -int32(syscall.EEXIST)
	case errors.Is(err, context.DeadlineExceeded):
		v.logger.Warn("Engine operation timed out", zap.String("op", op), zap.Error(err))
		return -int32(syscall.ETIMEDOUT)
	default:
		v.logger.Error("Engine operation failed", zap.String("op", op), zap.Error(err))
		return -int32(syscall.EIO)
	}
}

func neg(errno syscall.Errno) int32 { return -int32(errno) }

// lookup returns the inode at p. Symlinks in intermediate components are
// always followed; the final component is followed when follow is set.
// Callers hold v.mu.
func (v *volume) lookup(s *session, p string, follow bool) (*metadata.Metadata, int32) {
	ctx, cancel := v.getCtx()
	defer cancel()

	clean, err := cleanPath(p)
	if err != nil {
		return nil, neg(syscall.EINVAL)
	}
	pending := splitComponents(clean)
	cur, err := v.meta.Get(ctx, "/")
	if err != nil {
		return nil, v.errno("lookup", err)
	}
	hops := 0
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		if !cur.IsDir() {
			return nil, neg(syscall.ENOTDIR)
		}
		if !s.allowed(cur, 1) {
			return nil, neg(syscall.EACCES)
		}
		if name == ".." {
			parent, err := v.meta.Get(ctx, metadata.ParentPath(cur.Path))
			if err != nil {
				return nil, v.errno("lookup", err)
			}
			cur = parent
			continue
		}
		next, err := v.meta.Get(ctx, joinPath(cur.Path, name))
		if err != nil {
			return nil, v.errno("lookup", err)
		}
		if next.IsSymlink() && (len(pending) > 0 || follow) {
			hops++
			if hops > maxSymlinkHops {
				return nil, neg(syscall.ELOOP)
			}
			target := ""
			if next.SymlinkTarget != nil {
				target = *next.SymlinkTarget
			}
			if strings.HasPrefix(target, "/") {
				cur, err = v.meta.Get(ctx, "/")
				if err != nil {
					return nil, v.errno("lookup", err)
				}
			}
			pending = append(splitComponents(target), pending...)
			continue
		}
		cur = next
	}
	return cur, 0
}

// lookupParent resolves the directory that will hold the final component of
// p and checks write and search permission on it.
func (v *volume) lookupParent(s *session, p string) (*metadata.Metadata, string, int32) {
	clean, err := cleanPath(p)
	if err != nil {
		return nil, "", neg(syscall.EINVAL)
	}
	if clean == "/" {
		return nil, "", neg(syscall.EBUSY)
	}
	parentPath, name := splitPath(clean)
	if len(name) > maxNameLen {
		return nil, "", neg(syscall.ENAMETOOLONG)
	}
	parent, code := v.lookup(s, parentPath, true)
	if code < 0 {
		return nil, "", code
	}
	if !parent.IsDir() {
		return nil, "", neg(syscall.ENOTDIR)
	}
	if !s.allowed(parent, 3) {
		return nil, "", neg(syscall.EACCES)
	}
	return parent, name, 0
}

// mayRemove reports whether s may remove entry from the sticky directory parent.
func (s *session) mayRemove(parent, entry *metadata.Metadata) bool {
	if parent.Mode&0o1000 == 0 || s.superuser() {
		return true
	}
	return s.user == entry.Owner || s.user == parent.Owner
}

// stat builds the engine stat for md, reflecting unflushed writes.
func (v *volume) stat(md *metadata.Metadata) statView {
	st := statView{md: md, size: md.Size, mtime: md.MTime}
	if md.IsDir() {
		st.size = dirSize
	}
	if ino, ok := v.inodes[md.ID]; ok && !md.IsDir() {
		st.size = int64(len(ino.data))
		if ino.mtime.After(st.mtime) {
			st.mtime = ino.mtime
		}
	}
	return st
}

// acquire returns the shared content of md, loading it on first use.
func (v *volume) acquire(md *metadata.Metadata) (*inode, int32) {
	if ino, ok := v.inodes[md.ID]; ok {
		ino.refs++
		return ino, 0
	}
	ctx, cancel := v.getCtx()
	defer cancel()
	data, err := backends.ReadAll(ctx, v.data, contentKey(md.ID))
	if err != nil {
		return nil, v.errno("load", err)
	}
	// Content may be shorter than the recorded size after a sparse truncate.
	if int64(len(data)) < md.Size {
		data = append(data, make([]byte, md.Size-int64(len(data)))...)
	}
	ino := &inode{id: md.ID, path: md.Path, data: data[:md.Size], mtime: md.MTime, refs: 1}
	v.inodes[md.ID] = ino
	return ino, 0
}

// release drops one reference and persists the content when it was the last.
func (v *volume) release(ino *inode, trigger string) int32 {
	ino.refs--
	if ino.refs > 0 {
		return 0
	}
	delete(v.inodes, ino.id)
	if ino.unlinked {
		ctx, cancel := v.putCtx()
		defer cancel()
		if err := v.data.Delete(ctx, contentKey(ino.id)); err != nil && !errors.Is(err, backends.ErrNotFound) {
			v.logger.Warn("Failed to delete unlinked content", zap.Int64("inode", ino.id), zap.Error(err))
		}
		return 0
	}
	return v.persist(ino, trigger)
}

// persist uploads dirty content and records the new size.
func (v *volume) persist(ino *inode, trigger string) int32 {
	if !ino.dirty || ino.unlinked {
		return 0
	}
	ctx, cancel := v.putCtx()
	defer cancel()

	key := locks.InodeKey(v.name, ino.id)
	if err := locks.Wait(ctx, v.locker, key, lockInterval); err != nil {
		return v.errno("persist", err)
	}
	defer func() {
		if err := v.locker.Release(context.Background(), key); err != nil {
			v.logger.Warn("Failed to release inode lock", zap.String("key", key), zap.Error(err))
		}
	}()

	if err := v.data.Update(ctx, contentKey(ino.id), bytes.NewReader(ino.data), int64(len(ino.data))); err != nil {
		return v.errno("persist", err)
	}
	md, err := v.meta.Get(ctx, ino.path)
	if err != nil {
		return v.errno("persist", err)
	}
	md.Size = int64(len(ino.data))
	md.MTime = ino.mtime
	md.CTime = ino.mtime
	if err := v.meta.Update(ctx, md); err != nil {
		return v.errno("persist", err)
	}
	ino.dirty = false
	metrics.EmbeddedFlushesTotal.WithLabelValues(trigger).Inc()
	v.logger.Debug("Persisted file content",
		zap.Int64("inode", ino.id),
		zap.Int("size", len(ino.data)),
		zap.String("trigger", trigger))
	return 0
}

func (v *volume) persistAll(trigger string) {
	for _, ino := range v.inodes {
		if code := v.persist(ino, trigger); code < 0 {
			v.logger.Warn("Failed to persist file content",
				zap.Int64("inode", ino.id),
				zap.String("trigger", trigger),
				zap.Int32("status", code))
		}
	}
}

// rebase moves open buffers after a rename of oldPath.
func (v *volume) rebase(oldPath, newPath string) {
	for _, ino := range v.inodes {
		if ino.path == oldPath || strings.HasPrefix(ino.path, oldPath+"/") {
			ino.path = metadata.Rebase(ino.path, oldPath, newPath)
		}
	}
}

func (v *volume) logAccess(s *session, op, path string, code int32, start time.Time) {
	if v.access == nil {
		return
	}
	v.access.Info(op,
		zap.String("path", path),
		zap.Int32("status", code),
		zap.String("user", s.user),
		zap.Duration("duration", time.Since(start)))
}
