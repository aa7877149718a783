package embedded

import (
	"errors"
	"syscall"

	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/wire"
)

const maxXattrName = 255

// GetXattr copies the attribute value into buf. When the value is larger
// than buf, buf is filled and len(buf) is returned so the caller can retry
// with a larger buffer.
func (e *Engine) GetXattr(tid, h int64, p, name string, buf []byte) int32 {
	return e.withSession(h, "getXattr", p, func(s *session, v *volume) int32 {
		if name == "" || len(name) > maxXattrName {
			return neg(syscall.EINVAL)
		}
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if !s.allowed(md, 4) {
			return neg(syscall.EACCES)
		}
		ctx, cancel := v.getCtx()
		defer cancel()
		value, err := v.meta.GetXattr(ctx, md.ID, name)
		if errors.Is(err, metadata.ErrNotFound) {
			return neg(syscall.ENODATA)
		}
		if err != nil {
			return v.errno("getXattr", err)
		}
		return int32(copy(buf, value))
	})
}

// SetXattr stores an attribute. XATTR_CREATE fails on an existing name and
// XATTR_REPLACE on a missing one.
func (e *Engine) SetXattr(tid, h int64, p, name string, value []byte, flags int32) int32 {
	return e.withSession(h, "setXattr", p, func(s *session, v *volume) int32 {
		if name == "" || len(name) > maxXattrName {
			return neg(syscall.EINVAL)
		}
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if !s.owns(md) && !s.allowed(md, 2) {
			return neg(syscall.EACCES)
		}
		ctx, cancel := v.putCtx()
		defer cancel()

		_, err := v.meta.GetXattr(ctx, md.ID, name)
		exists := err == nil
		if err != nil && !errors.Is(err, metadata.ErrNotFound) {
			return v.errno("setXattr", err)
		}
		switch {
		case flags&engine.XATTR_CREATE != 0 && exists:
			return neg(syscall.EEXIST)
		case flags&engine.XATTR_REPLACE != 0 && !exists:
			return neg(syscall.ENODATA)
		}
		if err := v.meta.SetXattr(ctx, md.ID, name, value); err != nil {
			return v.errno("setXattr", err)
		}
		return 0
	})
}

func (e *Engine) RemoveXattr(tid, h int64, p, name string) int32 {
	return e.withSession(h, "removeXattr", p, func(s *session, v *volume) int32 {
		if v.opts.ReadOnly {
			return neg(syscall.EROFS)
		}
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if !s.owns(md) && !s.allowed(md, 2) {
			return neg(syscall.EACCES)
		}
		ctx, cancel := v.putCtx()
		defer cancel()
		err := v.meta.RemoveXattr(ctx, md.ID, name)
		if errors.Is(err, metadata.ErrNotFound) {
			return neg(syscall.ENODATA)
		}
		if err != nil {
			return v.errno("removeXattr", err)
		}
		return 0
	})
}

// ListXattr writes the NUL terminated attribute names into buf. Like
// GetXattr it returns len(buf) when the list was cut short.
func (e *Engine) ListXattr(tid, h int64, p string, buf []byte) int32 {
	return e.withSession(h, "listXattr", p, func(s *session, v *volume) int32 {
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		ctx, cancel := v.getCtx()
		defer cancel()
		names, err := v.meta.ListXattrs(ctx, md.ID)
		if err != nil {
			return v.errno("listXattr", err)
		}
		return int32(copy(buf, wire.EncodeXattrNames(names)))
	})
}
