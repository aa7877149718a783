package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metadata/storetest"
)

// Set JFS_TEST_POSTGRES_DSN to a scratch database to run this suite. The
// inodes table is emptied before every subtest.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("JFS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JFS_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) metadata.Store {
		s, err := NewPostgresStore(dsn, nil)
		if err != nil {
			t.Fatalf("NewPostgresStore: %v", err)
		}
		if _, err := s.db.ExecContext(context.Background(), `TRUNCATE inodes RESTART IDENTITY CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
