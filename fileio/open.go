package fileio

import (
	"io/fs"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/core"
	jfslog "github.com/ebogdum/jfsio/core/log"
)

type options struct {
	buffering int
	perm      fs.FileMode
	leakCheck bool
}

// Option configures Open.
type Option func(*options)

// WithBuffering selects the buffer size: 0 returns the raw File, a
// negative size uses DefaultBufferSize.
func WithBuffering(size int) Option {
	return func(o *options) { o.buffering = size }
}

// WithPerm sets the permission bits of a file Open creates.
func WithPerm(perm fs.FileMode) Option {
	return func(o *options) { o.perm = perm }
}

// WithLeakCheck logs a warning and closes the file when it becomes
// unreachable without having been closed.
func WithLeakCheck(on bool) Option {
	return func(o *options) { o.leakCheck = on }
}

// Open opens name with a Python-style mode string: exactly one of r, w, a
// or x, optionally + for update, and b or t. Text mode has no decoding
// layer here; it differs from binary only in refusing unbuffered access.
// An appending file starts positioned at the end.
func Open(sess *core.Session, name, mode string, opts ...Option) (Stream, error) {
	o := options{buffering: -1}
	for _, opt := range opts {
		opt(&o)
	}
	m, err := parseMode(mode)
	if err != nil {
		return nil, err
	}
	logger := sess.Logger()
	if m.universal {
		logger.Warn("Mode U is deprecated", zap.String("mode", mode))
	}
	if o.buffering == 0 && m.text {
		return nil, invalidMode(mode, "text mode cannot be unbuffered")
	}
	if o.buffering == 1 {
		logger.Warn("Line buffering is not supported, using the default buffer size",
			zap.String("path", jfslog.SanitizePath(name)))
		o.buffering = -1
	}

	raw, err := openFile(sess, name, m, o)
	if err != nil {
		return nil, err
	}
	if o.buffering == 0 {
		return raw, nil
	}
	size := o.buffering
	if size < 0 {
		size = DefaultBufferSize
	}
	switch {
	case m.updating:
		return NewBufferedRandom(raw, size), nil
	case m.reading:
		return NewBufferedReader(raw, size), nil
	default:
		return NewBufferedWriter(raw, size), nil
	}
}
