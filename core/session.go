// Package core is the POSIX layer over an engine session: the descriptor
// table, path operations and directory traversal.
package core

import (
	"fmt"
	"os/user"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/engine"
)

// Defaults applied by NewSession to zero Config fields.
const (
	DefaultGroup          = "nogroup"
	DefaultSuperuser      = "root"
	DefaultSupergroup     = "nogroup"
	DefaultListBufferSize = 32 << 10

	// DefaultFileMode and DefaultDirMode are used when a caller passes a
	// zero permission.
	DefaultFileMode = 0o777
	DefaultDirMode  = 0o777
)

// Config identifies the volume and the user a session acts as.
type Config struct {
	Name           string
	User           string
	Group          string
	Superuser      string
	Supergroup     string
	ListBufferSize int
}

// Session is one engine session and the descriptors opened through it. It
// is safe for concurrent use.
type Session struct {
	gw          *engine.Gateway
	fds         *DescriptorTable
	listBufSize int
	logger      *zap.Logger
}

// NewSession initializes an engine session. engineConf is the JSON engine
// configuration and is forwarded unchanged.
func NewSession(lib engine.Lib, cfg Config, engineConf []byte, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if cfg.User == "" {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to determine current user: %w", err)
		}
		cfg.User = u.Username
	}
	if cfg.Group == "" {
		cfg.Group = DefaultGroup
	}
	if cfg.Superuser == "" {
		cfg.Superuser = DefaultSuperuser
	}
	if cfg.Supergroup == "" {
		cfg.Supergroup = DefaultSupergroup
	}
	if cfg.ListBufferSize <= 0 {
		cfg.ListBufferSize = DefaultListBufferSize
	}

	gw, err := engine.Connect(lib, cfg.Name, engineConf, engine.Identity{
		User:       cfg.User,
		Group:      cfg.Group,
		Superuser:  cfg.Superuser,
		Supergroup: cfg.Supergroup,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Session{
		gw:          gw,
		fds:         NewDescriptorTable(),
		listBufSize: cfg.ListBufferSize,
		logger:      logger,
	}, nil
}

// Name returns the volume name.
func (s *Session) Name() string { return s.gw.Name() }

// Gateway exposes the underlying engine gateway.
func (s *Session) Gateway() *engine.Gateway { return s.gw }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Close closes every descriptor still open and terminates the engine
// session.
func (s *Session) Close() error {
	for _, fd := range s.fds.Open() {
		s.logger.Warn("Closing descriptor left open", zap.Int32("fd", int32(fd)))
		if err := s.CloseFd(fd); err != nil {
			s.logger.Debug("Failed to close descriptor", zap.Int32("fd", int32(fd)), zap.Error(err))
		}
	}
	return s.gw.Close()
}
