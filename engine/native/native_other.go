//go:build !(darwin || linux)

package native

import (
	"errors"

	"github.com/ebogdum/jfsio/engine"
)

// ErrUnsupported is returned by Load on platforms without dlopen support.
var ErrUnsupported = errors.New("native engine library is not supported on this platform")

// Library is unavailable on this platform.
type Library struct{ engine.Lib }

func Load(path string) (*Library, error) { return nil, ErrUnsupported }

func (l *Library) Unload() error { return nil }
