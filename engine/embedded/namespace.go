package embedded

import (
	"bytes"
	"context"
	"errors"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/backends"
	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/internal/pathutil"
	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/wire"
)

// mknod creates a new inode of type typ at p.
func (v *volume) mknod(s *session, p, typ string, mode uint32, target *string) int32 {
	if clean, err := cleanPath(p); err == nil && clean == "/" {
		return neg(syscall.EEXIST)
	}
	if v.opts.ReadOnly {
		return neg(syscall.EROFS)
	}
	parent, name, code := v.lookupParent(s, p)
	if code < 0 {
		return code
	}

	ctx, cancel := v.putCtx()
	defer cancel()
	full := joinPath(parent.Path, name)
	if _, err := v.meta.Get(ctx, full); err == nil {
		return neg(syscall.EEXIST)
	} else if !errors.Is(err, metadata.ErrNotFound) {
		return v.errno("mknod", err)
	}

	now := time.Now().UTC()
	md := &metadata.Metadata{
		Name:          name,
		Path:          full,
		Type:          typ,
		Mode:          mode & 0o7777,
		Owner:         s.user,
		Group:         s.group,
		ATime:         now,
		MTime:         now,
		CTime:         now,
		SymlinkTarget: target,
	}
	if target != nil {
		md.Mode = 0o777
		md.Size = int64(len(*target))
	}
	if err := v.meta.Create(ctx, md); err != nil {
		return v.errno("mknod", err)
	}
	v.touch(ctx, parent, now)
	return 0
}

// touch updates a directory's modification time after its entries changed.
func (v *volume) touch(ctx context.Context, dir *metadata.Metadata, now time.Time) {
	dir.MTime = now
	dir.CTime = now
	if err := v.meta.Update(ctx, dir); err != nil {
		v.logger.Debug("Failed to update directory times", zap.String("path", dir.Path), zap.Error(err))
	}
}

func (e *Engine) Mkdir(tid, h int64, p string, mode uint16) int32 {
	return e.withSession(h, "mkdir", p, func(s *session, v *volume) int32 {
		return v.mknod(s, p, metadata.TypeDirectory, uint32(mode), nil)
	})
}

func (e *Engine) Symlink(tid, h int64, target, link string) int32 {
	return e.withSession(h, "symlink", link, func(s *session, v *volume) int32 {
		if target == "" {
			return neg(syscall.ENOENT)
		}
		return v.mknod(s, link, metadata.TypeSymlink, 0o777, &target)
	})
}

// Delete removes a file, a symlink or an empty directory.
func (e *Engine) Delete(tid, h int64, p string) int32 {
	return e.withSession(h, "delete", p, func(s *session, v *volume) int32 {
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		parent, name, code := v.lookupParent(s, p)
		if code < 0 {
			return code
		}
		ctx, cancel := v.putCtx()
		defer cancel()
		md, err := v.meta.Get(ctx, joinPath(parent.Path, name))
		if err != nil {
			return v.errno("delete", err)
		}
		if md.IsDir() {
			children, err := v.meta.ListChildren(ctx, md.Path)
			if err != nil {
				return v.errno("delete", err)
			}
			if len(children) > 0 {
				return neg(syscall.ENOTEMPTY)
			}
		}
		if !s.mayRemove(parent, md) {
			return neg(syscall.EPERM)
		}
		if code := v.remove(ctx, md); code < 0 {
			return code
		}
		v.touch(ctx, parent, time.Now().UTC())
		return 0
	})
}

// Rmr removes p and everything below it.
func (e *Engine) Rmr(tid, h int64, p string) int32 {
	return e.withSession(h, "rmr", p, func(s *session, v *volume) int32 {
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		parent, name, code := v.lookupParent(s, p)
		if code < 0 {
			return code
		}
		ctx, cancel := v.putCtx()
		defer cancel()
		md, err := v.meta.Get(ctx, joinPath(parent.Path, name))
		if err != nil {
			return v.errno("rmr", err)
		}
		if !s.mayRemove(parent, md) {
			return neg(syscall.EPERM)
		}
		if code := v.removeTree(ctx, s, md); code < 0 {
			return code
		}
		v.touch(ctx, parent, time.Now().UTC())
		return 0
	})
}

func (v *volume) removeTree(ctx context.Context, s *session, md *metadata.Metadata) int32 {
	if md.IsDir() {
		if !s.allowed(md, 3) {
			return neg(syscall.EACCES)
		}
		children, err := v.meta.ListChildren(ctx, md.Path)
		if err != nil {
			return v.errno("rmr", err)
		}
		for _, child := range children {
			if code := v.removeTree(ctx, s, child); code < 0 {
				return code
			}
		}
	}
	return v.remove(ctx, md)
}

// remove deletes one inode. Content of a file that is still open is kept
// until its last descriptor closes.
func (v *volume) remove(ctx context.Context, md *metadata.Metadata) int32 {
	if err := v.meta.Delete(ctx, md.Path); err != nil {
		return v.errno("delete", err)
	}
	if md.IsDir() || md.IsSymlink() {
		return 0
	}
	if ino, ok := v.inodes[md.ID]; ok {
		ino.unlinked = true
		return 0
	}
	if err := v.data.Delete(ctx, contentKey(md.ID)); err != nil && !errors.Is(err, backends.ErrNotFound) {
		v.logger.Warn("Failed to delete file content", zap.Int64("inode", md.ID), zap.Error(err))
	}
	return 0
}

// Rename moves oldpath to newpath. An existing newpath is never replaced.
func (e *Engine) Rename(tid, h int64, oldpath, newpath string) int32 {
	return e.withSession(h, "rename", oldpath, func(s *session, v *volume) int32 {
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		oldParent, oldName, code := v.lookupParent(s, oldpath)
		if code < 0 {
			return code
		}
		newParent, newName, code := v.lookupParent(s, newpath)
		if code < 0 {
			return code
		}
		ctx, cancel := v.putCtx()
		defer cancel()

		src, err := v.meta.Get(ctx, joinPath(oldParent.Path, oldName))
		if err != nil {
			return v.errno("rename", err)
		}
		dst := joinPath(newParent.Path, newName)
		if dst == src.Path {
			return 0
		}
		if _, err := v.meta.Get(ctx, dst); err == nil {
			return neg(syscall.EEXIST)
		} else if !errors.Is(err, metadata.ErrNotFound) {
			return v.errno("rename", err)
		}
		if src.IsDir() && pathutil.IsWithin(dst, src.Path) {
			return neg(syscall.EINVAL)
		}
		if !s.mayRemove(oldParent, src) {
			return neg(syscall.EPERM)
		}
		if err := v.meta.Rename(ctx, src.Path, dst); err != nil {
			return v.errno("rename", err)
		}
		v.rebase(src.Path, dst)

		now := time.Now().UTC()
		v.touch(ctx, oldParent, now)
		if newParent.Path != oldParent.Path {
			v.touch(ctx, newParent, now)
		}
		return 0
	})
}

// Readlink copies the link target into buf, NUL terminated when room is
// left, and returns the number of target bytes copied.
func (e *Engine) Readlink(tid, h int64, p string, buf []byte) int32 {
	return e.withSession(h, "readlink", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, false)
		if code < 0 {
			return code
		}
		if !md.IsSymlink() || md.SymlinkTarget == nil {
			return neg(syscall.EINVAL)
		}
		n := copy(buf, *md.SymlinkTarget)
		if n < len(buf) {
			buf[n] = 0
		}
		return int32(n)
	})
}

// Truncate sets the length of a regular file, zero filling on extension.
func (e *Engine) Truncate(tid, h int64, p string, length int64) int32 {
	return e.withSession(h, "truncate", p, func(s *session, v *volume) int32 {
		if length < 0 {
			return neg(syscall.EINVAL)
		}
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if md.IsDir() {
			return neg(syscall.EISDIR)
		}
		if !s.allowed(md, 2) {
			return neg(syscall.EACCES)
		}
		ino, code := v.acquire(md)
		if code < 0 {
			return code
		}
		ino.data = resize(ino.data, length)
		ino.dirty = true
		ino.mtime = time.Now().UTC()
		return v.release(ino, "truncate")
	})
}

// Concat appends the contents of each NUL separated path in others to p.
func (e *Engine) Concat(tid, h int64, p string, others []byte) int32 {
	return e.withSession(h, "concat", p, func(s *session, v *volume) int32 {
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if md.IsDir() {
			return neg(syscall.EISDIR)
		}
		if !s.allowed(md, 2) {
			return neg(syscall.EACCES)
		}

		var sources []*metadata.Metadata
		for _, raw := range bytes.Split(others, []byte{0}) {
			if len(raw) == 0 {
				continue
			}
			src, code := v.lookup(s, string(raw), true)
			if code < 0 {
				return code
			}
			if src.IsDir() {
				return neg(syscall.EISDIR)
			}
			if !s.allowed(src, 4) {
				return neg(syscall.EACCES)
			}
			sources = append(sources, src)
		}

		ino, code := v.acquire(md)
		if code < 0 {
			return code
		}
		for _, src := range sources {
			content, code := v.content(src)
			if code < 0 {
				v.release(ino, "concat")
				return code
			}
			ino.data = append(ino.data, content...)
		}
		ino.dirty = true
		ino.mtime = time.Now().UTC()
		return v.release(ino, "concat")
	})
}

// content returns the current bytes of a regular file.
func (v *volume) content(md *metadata.Metadata) ([]byte, int32) {
	if ino, ok := v.inodes[md.ID]; ok {
		return bytes.Clone(ino.data), 0
	}
	ino, code := v.acquire(md)
	if code < 0 {
		return nil, code
	}
	data := ino.data
	delete(v.inodes, md.ID)
	return data, 0
}

func (e *Engine) Chmod(tid, h int64, p string, mode uint16) int32 {
	return e.withSession(h, "chmod", p, func(s *session, v *volume) int32 {
		return v.setattr(s, p, func(md *metadata.Metadata) int32 {
			if !s.owns(md) {
				return neg(syscall.EPERM)
			}
			md.Mode = uint32(mode) & 0o7777
			return 0
		})
	})
}

// SetOwner changes the owner and group. An empty name leaves that field
// unchanged. Only the superuser may give a file away.
func (e *Engine) SetOwner(tid, h int64, p, user, group string) int32 {
	return e.withSession(h, "setOwner", p, func(s *session, v *volume) int32 {
		if len(user) > maxOwnerLen || len(group) > maxOwnerLen {
			return neg(syscall.EINVAL)
		}
		return v.setattr(s, p, func(md *metadata.Metadata) int32 {
			if !s.owns(md) || (!s.superuser() && user != "" && user != md.Owner) {
				return neg(syscall.EPERM)
			}
			if user != "" {
				md.Owner = user
			}
			if group != "" {
				md.Group = group
			}
			return 0
		})
	})
}

// Utime sets the modification and access times, given in milliseconds.
func (e *Engine) Utime(tid, h int64, p string, mtime, atime int64) int32 {
	return e.withSession(h, "utime", p, func(s *session, v *volume) int32 {
		return v.setattr(s, p, func(md *metadata.Metadata) int32 {
			if !s.owns(md) && !s.allowed(md, 2) {
				return neg(syscall.EACCES)
			}
			md.MTime = time.UnixMilli(mtime).UTC()
			md.ATime = time.UnixMilli(atime).UTC()
			if ino, ok := v.inodes[md.ID]; ok {
				ino.mtime = md.MTime
			}
			return 0
		})
	})
}

// setattr applies change to the inode at p and stores it.
func (v *volume) setattr(s *session, p string, change func(md *metadata.Metadata) int32) int32 {
	if v.opts.ReadOnly {
		return neg(syscall.EROFS)
	}
	md, code := v.lookup(s, p, true)
	if code < 0 {
		return code
	}
	if code := change(md); code < 0 {
		return code
	}
	md.CTime = time.Now().UTC()
	ctx, cancel := v.putCtx()
	defer cancel()
	if err := v.meta.Update(ctx, md); err != nil {
		return v.errno("setattr", err)
	}
	return 0
}

func (e *Engine) Stat1(tid, h int64, p string, buf []byte) int32 {
	return e.withSession(h, "stat", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		return fill(buf, v.stat(md).encode())
	})
}

func (e *Engine) Lstat1(tid, h int64, p string, buf []byte) int32 {
	return e.withSession(h, "lstat", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, false)
		if code < 0 {
			return code
		}
		return fill(buf, v.stat(md).encode())
	})
}

// Access returns 0 when s holds every right in mode.
func (e *Engine) Access(tid, h int64, p string, mode int32) int32 {
	return e.withSession(h, "access", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if mode == engine.F_OK {
			return 0
		}
		if mode&engine.W_OK != 0 && v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		if !s.allowed(md, uint32(mode&7)) {
			return neg(syscall.EACCES)
		}
		return 0
	})
}

// Statvfs reports capacity and available bytes.
func (e *Engine) Statvfs(tid, h int64, buf []byte) int32 {
	return e.withSession(h, "statvfs", "", func(s *session, v *volume) int32 {
		ctx, cancel := v.getCtx()
		defer cancel()
		usage, err := v.meta.Usage(ctx)
		if err != nil {
			return v.errno("statvfs", err)
		}
		avail := v.opts.Capacity - usage.Bytes
		if avail < 0 {
			avail = 0
		}
		return fill(buf, wire.EncodeStatVfs(uint64(v.opts.Capacity), uint64(avail)))
	})
}

// Summary totals the file bytes, files and directories at or below p. A
// directory counts itself.
func (e *Engine) Summary(tid, h int64, p string, buf []byte) int32 {
	return e.withSession(h, "summary", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		ctx, cancel := v.getCtx()
		defer cancel()

		var sum wire.Summary
		stack := []*metadata.Metadata{md}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !cur.IsDir() {
				sum.Files++
				sum.Size += uint64(v.stat(cur).size)
				continue
			}
			sum.Dirs++
			children, err := v.meta.ListChildren(ctx, cur.Path)
			if err != nil {
				return v.errno("summary", err)
			}
			stack = append(stack, children...)
		}
		return fill(buf, wire.EncodeSummary(sum))
	})
}
