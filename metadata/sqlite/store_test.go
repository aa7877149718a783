package sqlite

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metadata/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) metadata.Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "meta.db"), zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	s, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	md := &metadata.Metadata{Name: "", Path: "/", Type: metadata.TypeDirectory, Mode: 0o777, Owner: "root", Group: "nogroup"}
	if err := s.Create(t.Context(), md); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(t.Context(), "/")
	if err != nil {
		t.Fatalf("root lost after reopen: %v", err)
	}
	if got.Group != "nogroup" || !got.IsDir() {
		t.Errorf("root = %+v", got)
	}
}
