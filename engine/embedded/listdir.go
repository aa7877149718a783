package embedded

import (
	"syscall"

	"github.com/ebogdum/jfsio/wire"
)

// Listdir writes one page of the directory listing into buf, starting at
// the child with index offset. It returns the number of record bytes; the
// page trailer follows them. A page holds at most dirPageSize bytes when
// that key is set, but always at least one record.
func (e *Engine) Listdir(tid, h int64, p string, offset int32, buf []byte) int32 {
	return e.withSession(h, "listdir", p, func(s *session, v *volume) int32 {
		if offset < 0 {
			return neg(syscall.EINVAL)
		}
		md, code := v.lookup(s, p, true)
		if code < 0 {
			return code
		}
		if !md.IsDir() {
			return neg(syscall.ENOTDIR)
		}
		if !s.allowed(md, 4) {
			return neg(syscall.EACCES)
		}
		ctx, cancel := v.getCtx()
		defer cancel()
		children, err := v.meta.ListChildren(ctx, md.Path)
		if err != nil {
			return v.errno("listdir", err)
		}

		budget := len(buf)
		if v.opts.DirPageSize > 0 && v.opts.DirPageSize < budget {
			budget = v.opts.DirPageSize
		}

		n := len(children)
		start := min(int(offset), n)
		i := start
		var out []byte
		for i < n {
			child := children[i]
			st := v.stat(child).encode()
			need := len(out) + wire.DirRecordLen(child.Name, st) + wire.DirTrailerLen(uint32(n-i-1))
			if need > len(buf) || (need > budget && i > start) {
				break
			}
			out, err = wire.AppendDirRecord(out, child.Name, st)
			if err != nil {
				return neg(syscall.ENAMETOOLONG)
			}
			i++
		}
		if i == start && start < n {
			return neg(syscall.ERANGE)
		}

		used := len(out)
		out = wire.AppendDirTrailer(out, uint32(n-i), uint32(i))
		if len(out) > len(buf) {
			return neg(syscall.ERANGE)
		}
		copy(buf, out)
		return int32(used)
	})
}
