// Package memory is a process-local metadata store. Nothing survives Close.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/metadata"
	"github.com/ebogdum/jfsio/metrics"
)

type MemoryStore struct {
	mu       sync.RWMutex
	inodes   map[string]*metadata.Metadata
	children map[string]map[string]struct{}
	xattrs   map[int64]map[string][]byte
	nextID   int64
	logger   *zap.Logger
}

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		inodes:   make(map[string]*metadata.Metadata),
		children: make(map[string]map[string]struct{}),
		xattrs:   make(map[int64]map[string][]byte),
		logger:   logger,
	}
}

func count(op string) { metrics.MetadataQueriesTotal.WithLabelValues("memory", op).Inc() }

func (s *MemoryStore) Get(ctx context.Context, path string) (*metadata.Metadata, error) {
	count("get")
	s.mu.RLock()
	defer s.mu.RUnlock()
	md, ok := s.inodes[path]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return md.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, md *metadata.Metadata) error {
	count("create")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inodes[md.Path]; ok {
		return metadata.ErrAlreadyExists
	}
	now := time.Now().UTC()
	if md.ATime.IsZero() {
		md.ATime = now
	}
	if md.MTime.IsZero() {
		md.MTime = now
	}
	if md.CTime.IsZero() {
		md.CTime = now
	}
	s.nextID++
	md.ID = s.nextID
	s.inodes[md.Path] = md.Clone()
	if md.Path != "/" {
		s.addChild(metadata.ParentPath(md.Path), md.Path)
	}
	return nil
}

func (s *MemoryStore) addChild(parent, child string) {
	set, ok := s.children[parent]
	if !ok {
		set = make(map[string]struct{})
		s.children[parent] = set
	}
	set[child] = struct{}{}
}

func (s *MemoryStore) Update(ctx context.Context, md *metadata.Metadata) error {
	count("update")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inodes[md.Path]; !ok {
		return metadata.ErrNotFound
	}
	s.inodes[md.Path] = md.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	count("delete")
	s.mu.Lock()
	defer s.mu.Unlock()
	md, ok := s.inodes[path]
	if !ok {
		return metadata.ErrNotFound
	}
	delete(s.inodes, path)
	delete(s.xattrs, md.ID)
	delete(s.children[metadata.ParentPath(path)], path)
	delete(s.children, path)
	return nil
}

func (s *MemoryStore) ListChildren(ctx context.Context, parentPath string) ([]*metadata.Metadata, error) {
	count("list_children")
	s.mu.RLock()
	defer s.mu.RUnlock()
	children := make([]*metadata.Metadata, 0, len(s.children[parentPath]))
	for p := range s.children[parentPath] {
		children = append(children, s.inodes[p].Clone())
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

func (s *MemoryStore) Rename(ctx context.Context, oldPath, newPath string) error {
	count("rename")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inodes[oldPath]; !ok {
		return metadata.ErrNotFound
	}
	if _, ok := s.inodes[newPath]; ok {
		return metadata.ErrAlreadyExists
	}

	var moved []string
	for p := range s.inodes {
		if p == oldPath || strings.HasPrefix(p, oldPath+"/") {
			moved = append(moved, p)
		}
	}
	delete(s.children[metadata.ParentPath(oldPath)], oldPath)
	for _, p := range moved {
		md := s.inodes[p]
		delete(s.inodes, p)
		delete(s.children, p)
		md.Path = metadata.Rebase(p, oldPath, newPath)
		if p == oldPath {
			md.Name = baseName(newPath)
		}
		s.inodes[md.Path] = md
	}
	for _, p := range moved {
		np := metadata.Rebase(p, oldPath, newPath)
		s.addChild(metadata.ParentPath(np), np)
	}
	return nil
}

func baseName(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

func (s *MemoryStore) GetXattr(ctx context.Context, id int64, name string) ([]byte, error) {
	count("get_xattr")
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.xattrs[id][name]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) SetXattr(ctx context.Context, id int64, name string, value []byte) error {
	count("set_xattr")
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, ok := s.xattrs[id]
	if !ok {
		attrs = make(map[string][]byte)
		s.xattrs[id] = attrs
	}
	attrs[name] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) RemoveXattr(ctx context.Context, id int64, name string) error {
	count("remove_xattr")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.xattrs[id][name]; !ok {
		return metadata.ErrNotFound
	}
	delete(s.xattrs[id], name)
	return nil
}

func (s *MemoryStore) ListXattrs(ctx context.Context, id int64) ([]string, error) {
	count("list_xattrs")
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.xattrs[id]))
	for name := range s.xattrs[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Usage(ctx context.Context) (metadata.Usage, error) {
	count("usage")
	s.mu.RLock()
	defer s.mu.RUnlock()
	var u metadata.Usage
	for _, md := range s.inodes {
		u.Inodes++
		if md.Type == metadata.TypeFile {
			u.Bytes += md.Size
		}
	}
	return u, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inodes = make(map[string]*metadata.Metadata)
	s.children = make(map[string]map[string]struct{})
	s.xattrs = make(map[int64]map[string][]byte)
	return nil
}
