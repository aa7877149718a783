package core

import (
	"errors"
	"syscall"

	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/wire"
)

const (
	xattrValueBufSize = 32 << 10
	xattrListBufSize  = 2 << 10
)

// GetXattr returns the value of attribute name, or nil when the attribute
// does not exist. The buffer doubles while the engine fills it completely.
func (s *Session) GetXattr(path, name string) ([]byte, error) {
	size := xattrValueBufSize
	for {
		buf := make([]byte, size)
		n, err := s.gw.GetXattr(engine.TwoPaths, path, name, buf)
		if errors.Is(err, syscall.ENODATA) || errors.Is(err, syscall.EPROTONOSUPPORT) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if n != size {
			return wire.Used("xattr", buf, n)
		}
		size *= 2
	}
}

// SetXattr sets attribute name. flags is 0, engine.XATTR_CREATE or
// engine.XATTR_REPLACE.
func (s *Session) SetXattr(path, name string, value []byte, flags int32) error {
	_, err := s.gw.SetXattr(engine.TwoPaths, path, name, value, flags)
	return err
}

func (s *Session) RemoveXattr(path, name string) error {
	_, err := s.gw.RemoveXattr(engine.TwoPaths, path, name)
	return err
}

// ListXattr returns the attribute names of path.
func (s *Session) ListXattr(path string) ([]string, error) {
	size := xattrListBufSize
	for {
		buf := make([]byte, size)
		n, err := s.gw.ListXattr(engine.OnePath, path, buf)
		if err != nil {
			return nil, err
		}
		if n != size {
			return wire.DecodeXattrNames(buf, n)
		}
		size *= 2
	}
}
