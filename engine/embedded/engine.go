// Package embedded is an in-process storage engine implementing the
// engine.Lib ABI. Metadata lives in one of the metadata stores and file
// contents in a backends.Storage, both chosen by the JSON configuration
// passed to Init.
package embedded

import (
	"path"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/internal/pathutil"
	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/wire"
)

// Engine is safe for concurrent use. Its zero value is not usable; call New.
type Engine struct {
	mu         sync.Mutex
	logger     *zap.Logger
	volumes    map[string]*volume
	sessions   map[int64]*session
	files      map[int32]*openFile
	nextHandle int64
	nextFd     int32
}

var _ engine.Lib = (*Engine)(nil)

// session is one initialized handle.
type session struct {
	vol        *volume
	volKey     string
	user       string
	group      string
	superName  string
	superGroup string
}

// openFile is one engine descriptor.
type openFile struct {
	sess   *session
	ino    *inode
	dir    bool
	access int32
	pos    int64
}

func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:   logger,
		volumes:  make(map[string]*volume),
		sessions: make(map[int64]*session),
		files:    make(map[int32]*openFile),
	}
}

// Init mounts the named volume, sharing it with earlier sessions that used
// the same stores. It returns a positive handle, or a non-positive status.
func (e *Engine) Init(name, jsonConf, user, group, superuser, supergroup string) int64 {
	opts, err := parseOptions(jsonConf)
	if err != nil {
		e.logger.Error("Rejected engine configuration", zap.String("name", name), zap.Error(err))
		return int64(neg(syscall.EINVAL))
	}
	if name == "" || user == "" || len(user) > maxOwnerLen || len(group) > maxOwnerLen {
		return int64(neg(syscall.EINVAL))
	}
	key := name + "\x00" + opts.Meta + "\x00" + opts.Bucket

	e.mu.Lock()
	defer e.mu.Unlock()

	vol, ok := e.volumes[key]
	if !ok {
		vol, err = openVolume(name, opts, superuser, supergroup, e.logger)
		if err != nil {
			e.logger.Error("Failed to open volume", zap.String("name", name), zap.Error(err))
			return int64(neg(syscall.EIO))
		}
		e.volumes[key] = vol
	}
	vol.refs++

	e.nextHandle++
	h := e.nextHandle
	e.sessions[h] = &session{
		vol:        vol,
		volKey:     key,
		user:       user,
		group:      group,
		superName:  superuser,
		superGroup: supergroup,
	}
	vol.logger.Info("Session started", zap.Int64("handle", h), zap.Bool("read_only", opts.ReadOnly))
	return h
}

// Term closes every descriptor of the session and unmounts the volume when
// no session uses it anymore.
func (e *Engine) Term(tid, h int64) int32 {
	e.mu.Lock()
	s, ok := e.sessions[h]
	if !ok {
		e.mu.Unlock()
		return neg(syscall.EBADF)
	}
	delete(e.sessions, h)
	var orphans []*openFile
	for fd, f := range e.files {
		if f.sess == s {
			orphans = append(orphans, f)
			delete(e.files, fd)
		}
	}
	s.vol.refs--
	last := s.vol.refs == 0
	if last {
		delete(e.volumes, s.volKey)
	}
	e.mu.Unlock()

	v := s.vol
	v.mu.Lock()
	for _, f := range orphans {
		if f.ino != nil {
			v.release(f.ino, "term")
		}
	}
	v.mu.Unlock()
	v.logger.Info("Session terminated", zap.Int64("handle", h), zap.Int("closed_files", len(orphans)))
	if last {
		v.shutdown()
	}
	return 0
}

func (e *Engine) session(h int64) (*session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[h]
	return s, ok
}

func (e *Engine) file(fd int32) (*openFile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.files[fd]
	return f, ok
}

// withSession runs fn under the volume lock of handle h.
func (e *Engine) withSession(h int64, op, p string, fn func(s *session, v *volume) int32) int32 {
	s, ok := e.session(h)
	if !ok {
		return neg(syscall.EBADF)
	}
	start := time.Now()
	v := s.vol
	v.mu.Lock()
	code := fn(s, v)
	v.mu.Unlock()
	v.logAccess(s, op, p, code, start)
	return code
}

// withFile runs fn under the volume lock of descriptor fd.
func (e *Engine) withFile(fd int32, op string, fn func(f *openFile, v *volume) int32) int32 {
	f, ok := e.file(fd)
	if !ok {
		return neg(syscall.EBADF)
	}
	start := time.Now()
	v := f.sess.vol
	v.mu.Lock()
	code := fn(f, v)
	p := ""
	if f.ino != nil {
		p = f.ino.path
	}
	v.mu.Unlock()
	v.logAccess(f.sess, op, p, code, start)
	return code
}

func (s *session) superuser() bool { return s.user == s.superName }

// allowed checks the rwx bits in want (4, 2, 1) against md for s.
func (s *session) allowed(md *metadata.Metadata, want uint32) bool {
	if s.superuser() {
		return true
	}
	var bits uint32
	switch {
	case s.user == md.Owner:
		bits = md.Mode >> 6
	case s.group == md.Group:
		bits = md.Mode >> 3
	default:
		bits = md.Mode
	}
	return bits&want&7 == want&7
}

func (s *session) owns(md *metadata.Metadata) bool {
	return s.superuser() || s.user == md.Owner
}

func cleanPath(p string) (string, error) {
	return pathutil.Clean(p)
}

func splitPath(p string) (string, string) {
	return pathutil.Split(p)
}

func joinPath(dir, name string) string {
	return path.Join(dir, name)
}

// splitComponents splits a path into names, dropping empty and "." parts.
func splitComponents(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." {
			continue
		}
		out = append(out, part)
	}
	return out
}

// statView is an inode as reported by stat calls.
type statView struct {
	md    *metadata.Metadata
	size  int64
	mtime time.Time
}

func (st statView) wire() wire.Stat {
	mode := st.md.Mode & 0o7777
	switch st.md.Type {
	case metadata.TypeDirectory:
		mode |= wire.S_IFDIR
	case metadata.TypeSymlink:
		mode |= wire.S_IFLNK
	default:
		mode |= wire.S_IFREG
	}
	return wire.Stat{
		Mode:  mode,
		Size:  uint64(st.size),
		Mtime: uint64(st.mtime.UnixMilli()),
		Atime: uint64(st.md.ATime.UnixMilli()),
		Owner: st.md.Owner,
		Group: st.md.Group,
	}
}

func (st statView) encode() []byte {
	return wire.EncodeStat(st.wire())
}

// fill copies src into buf, reporting ERANGE when it does not fit.
func fill(buf, src []byte) int32 {
	if len(src) > len(buf) {
		return neg(syscall.ERANGE)
	}
	return int32(copy(buf, src))
}
