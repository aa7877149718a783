package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metadata/storetest"
)

// Set JFS_TEST_REDIS_URL (for example redis://localhost:6379/15) to run
// against a live server. Each subtest uses its own key prefix.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("JFS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("JFS_TEST_REDIS_URL not set")
	}
	storetest.Run(t, func(t *testing.T) metadata.Store {
		prefix := fmt.Sprintf("jfstest:%d:", time.Now().UnixNano())
		s, err := NewRedisStoreFromURL(url, prefix, nil)
		if err != nil {
			t.Fatalf("NewRedisStoreFromURL: %v", err)
		}
		t.Cleanup(func() {
			ctx := context.Background()
			iter := s.client.Scan(ctx, 0, prefix+"*", 256).Iterator()
			for iter.Next(ctx) {
				s.client.Del(ctx, iter.Val())
			}
			_ = s.Close()
		})
		return s
	})
}

func TestNewRedisStoreFromURLRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStoreFromURL("http://not-redis", "", nil); err == nil {
		t.Error("expected an error for a non-redis url")
	}
}
