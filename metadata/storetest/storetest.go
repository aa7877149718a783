// Package storetest is a conformance suite shared by the metadata.Store
// implementations.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ebogdum/jfsio/metadata"
)

// Run exercises every Store method against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) metadata.Store) {
	t.Helper()

	t.Run("CreateGetUpdate", func(t *testing.T) { testCreateGetUpdate(t, newStore(t)) })
	t.Run("ListChildren", func(t *testing.T) { testListChildren(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Rename", func(t *testing.T) { testRename(t, newStore(t)) })
	t.Run("Xattrs", func(t *testing.T) { testXattrs(t, newStore(t)) })
	t.Run("Usage", func(t *testing.T) { testUsage(t, newStore(t)) })
}

func mkdir(t *testing.T, s metadata.Store, path string) *metadata.Metadata {
	t.Helper()
	md := &metadata.Metadata{Name: base(path), Path: path, Type: metadata.TypeDirectory, Mode: 0o755, Owner: "root", Group: "root"}
	if err := s.Create(context.Background(), md); err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	return md
}

func mkfile(t *testing.T, s metadata.Store, path string, size int64) *metadata.Metadata {
	t.Helper()
	md := &metadata.Metadata{Name: base(path), Path: path, Type: metadata.TypeFile, Size: size, Mode: 0o644, Owner: "alice", Group: "staff"}
	if err := s.Create(context.Background(), md); err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	return md
}

func base(p string) string {
	if p == "/" {
		return ""
	}
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func names(mds []*metadata.Metadata) []string {
	out := make([]string, len(mds))
	for i, md := range mds {
		out[i] = md.Name
	}
	return out
}

func testCreateGetUpdate(t *testing.T, s metadata.Store) {
	ctx := context.Background()
	mkdir(t, s, "/")
	f := mkfile(t, s, "/a.txt", 3)
	if f.ID == 0 {
		t.Error("Create must assign an ID")
	}

	if err := s.Create(ctx, &metadata.Metadata{Name: "a.txt", Path: "/a.txt", Type: metadata.TypeFile}); !errors.Is(err, metadata.ErrAlreadyExists) {
		t.Errorf("duplicate create: expected ErrAlreadyExists, got %v", err)
	}

	got, err := s.Get(ctx, "/a.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != f.ID || got.Size != 3 || got.Mode != 0o644 || got.Owner != "alice" || got.Group != "staff" {
		t.Errorf("Get = %+v", got)
	}

	target := "/a.txt"
	got.Size = 10
	got.Mode = 0o4600
	got.SymlinkTarget = &target
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := s.Get(ctx, "/a.txt")
	if again.Size != 10 || again.Mode != 0o4600 || again.SymlinkTarget == nil || *again.SymlinkTarget != target {
		t.Errorf("after update = %+v", again)
	}

	if _, err := s.Get(ctx, "/missing"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Update(ctx, &metadata.Metadata{Path: "/missing"}); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}
}

func testListChildren(t *testing.T, s metadata.Store) {
	ctx := context.Background()
	mkdir(t, s, "/")
	mkdir(t, s, "/dir")
	mkfile(t, s, "/dir/b", 0)
	mkfile(t, s, "/dir/a", 0)
	mkdir(t, s, "/dir/c")
	mkfile(t, s, "/dir/c/deep", 0)
	mkfile(t, s, "/top", 0)

	children, err := s.ListChildren(ctx, "/dir")
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(names(children), want) {
		t.Errorf("children = %v, want %v", names(children), want)
	}

	root, err := s.ListChildren(ctx, "/")
	if err != nil {
		t.Fatalf("ListChildren(/): %v", err)
	}
	if want := []string{"dir", "top"}; !reflect.DeepEqual(names(root), want) {
		t.Errorf("root children = %v, want %v", names(root), want)
	}

	empty, err := s.ListChildren(ctx, "/dir/c/deep")
	if err != nil || len(empty) != 0 {
		t.Errorf("children of a file = %v, %v", empty, err)
	}
}

func testDelete(t *testing.T, s metadata.Store) {
	ctx := context.Background()
	mkdir(t, s, "/")
	f := mkfile(t, s, "/f", 1)
	if err := s.SetXattr(ctx, f.ID, "user.k", []byte("v")); err != nil {
		t.Fatalf("SetXattr: %v", err)
	}
	if err := s.Delete(ctx, "/f"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "/f"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("deleted inode still present: %v", err)
	}
	if children, _ := s.ListChildren(ctx, "/"); len(children) != 0 {
		t.Errorf("deleted inode still listed: %v", names(children))
	}
	if attrs, _ := s.ListXattrs(ctx, f.ID); len(attrs) != 0 {
		t.Errorf("xattrs survived delete: %v", attrs)
	}
	if err := s.Delete(ctx, "/f"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func testRename(t *testing.T, s metadata.Store) {
	ctx := context.Background()
	mkdir(t, s, "/")
	mkdir(t, s, "/src")
	mkdir(t, s, "/src/sub")
	f := mkfile(t, s, "/src/sub/f", 5)
	mkfile(t, s, "/srcfile", 1)
	mkdir(t, s, "/dst")

	if err := s.Rename(ctx, "/src", "/dst"); !errors.Is(err, metadata.ErrAlreadyExists) {
		t.Errorf("rename onto existing: expected ErrAlreadyExists, got %v", err)
	}
	if err := s.Rename(ctx, "/src", "/dst/moved"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	moved, err := s.Get(ctx, "/dst/moved/sub/f")
	if err != nil {
		t.Fatalf("descendant not moved: %v", err)
	}
	if moved.ID != f.ID || moved.Size != 5 {
		t.Errorf("moved = %+v", moved)
	}
	dir, err := s.Get(ctx, "/dst/moved")
	if err != nil || dir.Name != "moved" {
		t.Errorf("renamed dir = %+v, %v", dir, err)
	}
	if _, err := s.Get(ctx, "/src/sub"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("old path still present: %v", err)
	}
	if _, err := s.Get(ctx, "/srcfile"); err != nil {
		t.Errorf("sibling sharing the prefix was disturbed: %v", err)
	}

	root, _ := s.ListChildren(ctx, "/")
	if want := []string{"dst", "srcfile"}; !reflect.DeepEqual(names(root), want) {
		t.Errorf("root children = %v, want %v", names(root), want)
	}
	sub, _ := s.ListChildren(ctx, "/dst/moved/sub")
	if want := []string{"f"}; !reflect.DeepEqual(names(sub), want) {
		t.Errorf("moved children = %v, want %v", names(sub), want)
	}
}

func testXattrs(t *testing.T, s metadata.Store) {
	ctx := context.Background()
	mkdir(t, s, "/")
	f := mkfile(t, s, "/f", 0)

	if _, err := s.GetXattr(ctx, f.ID, "user.none"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	for _, kv := range [][2]string{{"user.b", "2"}, {"user.a", "1"}, {"user.b", "22"}} {
		if err := s.SetXattr(ctx, f.ID, kv[0], []byte(kv[1])); err != nil {
			t.Fatalf("SetXattr: %v", err)
		}
	}
	value, err := s.GetXattr(ctx, f.ID, "user.b")
	if err != nil || string(value) != "22" {
		t.Errorf("GetXattr = %q, %v", value, err)
	}
	list, err := s.ListXattrs(ctx, f.ID)
	if err != nil {
		t.Fatalf("ListXattrs: %v", err)
	}
	if want := []string{"user.a", "user.b"}; !reflect.DeepEqual(list, want) {
		t.Errorf("ListXattrs = %v, want %v", list, want)
	}
	if err := s.RemoveXattr(ctx, f.ID, "user.a"); err != nil {
		t.Fatalf("RemoveXattr: %v", err)
	}
	if err := s.RemoveXattr(ctx, f.ID, "user.a"); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("second remove: expected ErrNotFound, got %v", err)
	}
}

func testUsage(t *testing.T, s metadata.Store) {
	mkdir(t, s, "/")
	mkdir(t, s, "/d")
	mkfile(t, s, "/d/a", 100)
	mkfile(t, s, "/b", 23)

	u, err := s.Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if u.Bytes != 123 || u.Inodes != 4 {
		t.Errorf("usage = %+v", u)
	}
}
