package memory

import (
	"testing"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metadata/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) metadata.Store {
		s := NewMemoryStore(nil)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
