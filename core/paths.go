package core

import (
	"bytes"
	"io/fs"
	"path"
	"syscall"
	"time"

	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/wire"
)

const (
	statBufSize     = 130
	readlinkBufSize = 4096
)

func permBits(perm fs.FileMode, def uint16) uint16 {
	if perm == 0 {
		return def
	}
	mode := uint16(perm.Perm())
	if perm&fs.ModeSetuid != 0 {
		mode |= 0o4000
	}
	if perm&fs.ModeSetgid != 0 {
		mode |= 0o2000
	}
	if perm&fs.ModeSticky != 0 {
		mode |= 0o1000
	}
	return mode
}

// Create makes an empty regular file.
func (s *Session) Create(path string, perm fs.FileMode) error {
	_, err := s.gw.Create(engine.OnePath, path, permBits(perm, DefaultFileMode))
	return err
}

func (s *Session) Mkdir(path string, perm fs.FileMode) error {
	_, err := s.gw.Mkdir(engine.OnePath, path, permBits(perm, DefaultDirMode))
	return err
}

// MakeDirs creates path and any missing parents. With existOK an existing
// path is not an error.
func (s *Session) MakeDirs(p string, perm fs.FileMode, existOK bool) error {
	mode := permBits(perm, DefaultDirMode)
	code, _ := s.gw.Mkdir(engine.Raw, p, mode)
	if code == -int(syscall.EEXIST) && existOK {
		return nil
	}
	if code == -int(syscall.ENOENT) {
		if parent := path.Dir(p); parent != p {
			if err := s.MakeDirs(parent, perm, true); err != nil {
				return err
			}
		}
		code, _ = s.gw.Mkdir(engine.Raw, p, mode)
		if code == -int(syscall.EEXIST) && existOK {
			return nil
		}
	}
	return engine.StatusError("mkdir", int64(code), engine.OnePath, p)
}

// Rmdir removes an empty directory.
func (s *Session) Rmdir(path string) error {
	if !s.IsDir(path) {
		return pathError("rmdir", path, syscall.ENOTDIR)
	}
	_, err := s.gw.Delete(engine.OnePath, path)
	return err
}

// RemoveDirs removes the leaf directory, then each parent until one cannot
// be removed.
func (s *Session) RemoveDirs(p string) error {
	if err := s.Rmdir(p); err != nil {
		return err
	}
	head, tail := path.Split(p)
	if tail == "" {
		head, tail = path.Split(path.Clean(head))
	}
	for head != "" && tail != "" {
		head = path.Clean(head)
		if head == "/" || s.Rmdir(head) != nil {
			break
		}
		head, tail = path.Split(head)
	}
	return nil
}

// Remove deletes a file or symlink. Directories fail with EISDIR.
func (s *Session) Remove(path string) error {
	if st, err := s.Lstat(path); err == nil && st.IsDir() {
		return pathError("remove", path, syscall.EISDIR)
	}
	_, err := s.gw.Delete(engine.OnePath, path)
	return err
}

// Unlink is Remove.
func (s *Session) Unlink(path string) error { return s.Remove(path) }

// Delete removes a file, a symlink or an empty directory.
func (s *Session) Delete(path string) error {
	_, err := s.gw.Delete(engine.OnePath, path)
	return err
}

// Rmtree removes path and everything below it.
func (s *Session) Rmtree(path string) error {
	_, err := s.gw.Rmr(engine.OnePath, path)
	return err
}

// Rename moves oldpath to newpath. It fails if newpath exists.
func (s *Session) Rename(oldpath, newpath string) error {
	_, err := s.gw.Rename(engine.TwoPaths, oldpath, newpath)
	return err
}

// Replace is Rename.
func (s *Session) Replace(oldpath, newpath string) error { return s.Rename(oldpath, newpath) }

// Symlink creates link pointing at target.
func (s *Session) Symlink(target, link string) error {
	_, err := s.gw.Symlink(engine.TwoPaths, target, link)
	return err
}

func (s *Session) Readlink(path string) (string, error) {
	buf := make([]byte, readlinkBufSize)
	n, err := s.gw.Readlink(engine.OnePath, path, buf)
	if err != nil {
		return "", err
	}
	buf = buf[:min(n, len(buf))]
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// Truncate sets the length of the file at path. Growing zero fills.
func (s *Session) Truncate(path string, size int64) error {
	_, err := s.gw.Truncate(engine.OnePath, path, size)
	return err
}

// Concat appends the contents of others to path, in order.
func (s *Session) Concat(path string, others ...string) error {
	var list []byte
	for _, other := range others {
		if !s.Exists(other) {
			return pathError("concat", other, syscall.ENOENT)
		}
		list = append(list, other...)
		list = append(list, 0)
	}
	_, err := s.gw.Concat(engine.OnePath, path, list)
	return err
}

// Access reports whether the session user holds mode (R_OK, W_OK, X_OK or
// F_OK) on path.
func (s *Session) Access(path string, mode int32) bool {
	code, _ := s.gw.Access(engine.Raw, path, mode)
	return code == 0
}

// Stat follows symlinks.
func (s *Session) Stat(path string) (wire.Stat, error) {
	buf := make([]byte, statBufSize)
	n, err := s.gw.Stat(engine.OnePath, path, buf)
	if err != nil {
		return wire.Stat{}, err
	}
	used, err := wire.Used("stat", buf, n)
	if err != nil {
		return wire.Stat{}, err
	}
	return wire.DecodeStat(used)
}

func (s *Session) Lstat(path string) (wire.Stat, error) {
	buf := make([]byte, statBufSize)
	n, err := s.gw.Lstat(engine.OnePath, path, buf)
	if err != nil {
		return wire.Stat{}, err
	}
	used, err := wire.Used("stat", buf, n)
	if err != nil {
		return wire.Stat{}, err
	}
	return wire.DecodeStat(used)
}

func (s *Session) Chmod(path string, mode fs.FileMode) error {
	_, err := s.gw.Chmod(engine.OnePath, path, permBits(mode, 0))
	return err
}

// Chown sets the owner and group names. An empty name is left unchanged.
func (s *Session) Chown(path, user, group string) error {
	_, err := s.gw.SetOwner(engine.OnePath, path, user, group)
	return err
}

// Utime sets access and modification times. Zero times mean now.
func (s *Session) Utime(path string, atime, mtime time.Time) error {
	now := time.Now()
	if atime.IsZero() {
		atime = now
	}
	if mtime.IsZero() {
		mtime = now
	}
	_, err := s.gw.Utime(engine.OnePath, path, mtime.UnixMilli(), atime.UnixMilli())
	return err
}

// Statvfs reports volume capacity.
func (s *Session) Statvfs() (wire.StatVfs, error) {
	buf := make([]byte, wire.StatVfsLen)
	if _, err := s.gw.Statvfs(engine.NoPath, buf); err != nil {
		return wire.StatVfs{}, err
	}
	return wire.DecodeStatVfs(buf)
}

// Summary totals size, files and directories below path.
func (s *Session) Summary(path string) (wire.Summary, error) {
	buf := make([]byte, wire.SummaryLen)
	if _, err := s.gw.Summary(engine.OnePath, path, buf); err != nil {
		return wire.Summary{}, err
	}
	return wire.DecodeSummary(buf)
}

func (s *Session) Exists(path string) bool {
	_, err := s.Stat(path)
	return err == nil
}

// Lexists is Exists without following a final symlink.
func (s *Session) Lexists(path string) bool {
	_, err := s.Lstat(path)
	return err == nil
}

func (s *Session) IsDir(path string) bool {
	st, err := s.Stat(path)
	return err == nil && st.IsDir()
}

func (s *Session) IsFile(path string) bool {
	st, err := s.Stat(path)
	return err == nil && st.IsRegular()
}

func (s *Session) IsLink(path string) bool {
	st, err := s.Lstat(path)
	return err == nil && st.IsSymlink()
}

func (s *Session) GetSize(path string) (int64, error) {
	st, err := s.Stat(path)
	if err != nil {
		return 0, err
	}
	return int64(st.Size), nil
}

func (s *Session) GetMtime(path string) (time.Time, error) {
	st, err := s.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return st.ModTime(), nil
}

func (s *Session) GetAtime(path string) (time.Time, error) {
	st, err := s.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return st.AccessTime(), nil
}
