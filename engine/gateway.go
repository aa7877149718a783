package engine

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/metrics"
)

// Identity is the user the session acts as, plus the engine superuser.
type Identity struct {
	User       string
	Group      string
	Superuser  string
	Supergroup string
}

// Gateway issues engine calls on behalf of one session handle. It is safe
// for concurrent use; the engine serializes internally as it sees fit.
type Gateway struct {
	lib    Lib
	name   string
	handle int64
	closed atomic.Bool
	logger *zap.Logger
}

// Connect initializes an engine session for the named volume. conf is the
// engine configuration as a JSON object and is passed through unchanged.
func Connect(lib Lib, name string, conf []byte, id Identity, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := lib.Init(name, string(conf), id.User, id.Group, id.Superuser, id.Supergroup)
	if h <= 0 {
		return nil, fmt.Errorf("%w for jfs://%s", ErrInitFailed, name)
	}
	logger.Info("Engine session initialized",
		zap.String("name", name),
		zap.String("user", jfslog.SanitizeUser(id.User)),
		zap.Int64("handle", h))
	return &Gateway{lib: lib, name: name, handle: h, logger: logger}, nil
}

// Name returns the volume name the session was initialized with.
func (g *Gateway) Name() string { return g.name }

// Handle returns the engine session handle.
func (g *Gateway) Handle() int64 { return g.handle }

// Logger returns the logger the gateway was created with.
func (g *Gateway) Logger() *zap.Logger { return g.logger }

// Close terminates the engine session. Subsequent calls fail with EBADF.
// Closing twice is a no-op.
func (g *Gateway) Close() error {
	if g.closed.Swap(true) {
		return nil
	}
	_, err := g.call("term", NoPath, nil, func(tid int64) int64 {
		return int64(g.lib.Term(tid, g.handle))
	})
	g.logger.Info("Engine session terminated", zap.String("name", g.name), zap.Error(err))
	return err
}

// call runs fn on a locked OS thread so the thread id it receives is the
// one actually executing the engine code.
func (g *Gateway) call(op string, arity Arity, paths []string, fn func(tid int64) int64) (int64, error) {
	if g.closed.Load() && op != "term" {
		if arity == Raw {
			return -int64(syscall.EBADF), nil
		}
		return -int64(syscall.EBADF), StatusError(op, -int64(syscall.EBADF), arity, paths...)
	}

	runtime.LockOSThread()
	tid := threadID()
	start := time.Now()
	code := fn(tid)
	elapsed := time.Since(start)
	runtime.UnlockOSThread()

	status := "ok"
	if code < 0 {
		status = errnoLabel(syscall.Errno(-code))
	}
	metrics.EngineCallsTotal.WithLabelValues(op, status).Inc()
	metrics.EngineCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	if ce := g.logger.Check(zap.DebugLevel, "Engine call"); ce != nil {
		fields := []zap.Field{
			zap.String("op", op),
			zap.Int64("code", code),
			zap.Int64("tid", tid),
			zap.Duration("duration", elapsed),
		}
		if len(paths) > 0 {
			fields = append(fields, zap.String("path", jfslog.SanitizePath(paths[0])))
		}
		ce.Write(fields...)
	}

	return code, StatusError(op, code, arity, paths...)
}
