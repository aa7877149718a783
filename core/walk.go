package core

import (
	"iter"
	"path"

	"go.uber.org/zap"

	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/wire"
)

// Scandir lists the entries of dir, fetching pages from the engine as the
// sequence is consumed. Entries arrive in engine order; "." and ".." are
// never included. An error ends the sequence.
func (s *Session) Scandir(dir string) iter.Seq2[wire.DirEntry, error] {
	return func(yield func(wire.DirEntry, error) bool) {
		buf := make([]byte, s.listBufSize)
		var cursor int32
		for {
			clear(buf)
			used, err := s.gw.Listdir(engine.OnePath, dir, cursor, buf)
			if err != nil {
				yield(wire.DirEntry{}, err)
				return
			}
			page, err := wire.DecodeDirPage(dir, buf, used)
			if err != nil {
				yield(wire.DirEntry{}, err)
				return
			}
			for _, entry := range page.Entries {
				if !yield(entry, nil) {
					return
				}
			}
			if page.Done() {
				return
			}
			cursor = int32(page.Cursor)
		}
	}
}

// Listdir returns the entry names of dir.
func (s *Session) Listdir(dir string) ([]string, error) {
	var names []string
	for entry, err := range s.Scandir(dir) {
		if err != nil {
			return nil, err
		}
		names = append(names, entry.Name)
	}
	return names, nil
}

// WalkStep is one directory visited by Walk. Dirs and Files hold entry
// names. In top-down walks Dirs may be edited before the next step is
// requested to prune or reorder the traversal.
type WalkStep struct {
	Dir   string
	Dirs  []string
	Files []string
}

// Walk visits the tree rooted at top. Top-down walks yield a directory
// before its subdirectories; bottom-up walks yield it after. Symlinks are
// never descended into. A failure to list top is yielded; failures below
// top skip that directory.
func (s *Session) Walk(top string, topdown bool) iter.Seq2[*WalkStep, error] {
	return func(yield func(*WalkStep, error) bool) {
		root, err := s.scanStep(top)
		if err != nil {
			yield(nil, err)
			return
		}
		if topdown {
			s.walkTopDown(root, yield)
		} else {
			s.walkBottomUp(root, yield)
		}
	}
}

func (s *Session) walkTopDown(root *WalkStep, yield func(*WalkStep, error) bool) {
	type pendingDir struct {
		dir  string
		step *WalkStep // set for the root, which is already scanned
	}
	pending := []pendingDir{{dir: root.Dir, step: root}}
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		step := next.step
		if step == nil {
			if step = s.descend(next.dir); step == nil {
				continue
			}
		}
		if !yield(step, nil) {
			return
		}
		for i := len(step.Dirs) - 1; i >= 0; i-- {
			pending = append(pending, pendingDir{dir: path.Join(step.Dir, step.Dirs[i])})
		}
	}
}

func (s *Session) walkBottomUp(root *WalkStep, yield func(*WalkStep, error) bool) {
	type frame struct {
		step *WalkStep
		next int
	}
	stack := []*frame{{step: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next < len(f.step.Dirs) {
			name := f.step.Dirs[f.next]
			f.next++
			if child := s.descend(path.Join(f.step.Dir, name)); child != nil {
				stack = append(stack, &frame{step: child})
			}
			continue
		}
		stack = stack[:len(stack)-1]
		if !yield(f.step, nil) {
			return
		}
	}
}

// descend scans a subdirectory, returning nil for symlinks and for
// directories that cannot be listed.
func (s *Session) descend(dir string) *WalkStep {
	if s.IsLink(dir) {
		return nil
	}
	step, err := s.scanStep(dir)
	if err != nil {
		s.logger.Debug("Skipping unreadable directory",
			zap.String("path", jfslog.SanitizePath(dir)),
			zap.Error(err))
		return nil
	}
	return step
}

func (s *Session) scanStep(dir string) (*WalkStep, error) {
	step := &WalkStep{Dir: dir, Dirs: []string{}, Files: []string{}}
	for entry, err := range s.Scandir(dir) {
		if err != nil {
			return nil, err
		}
		if entry.IsDir() {
			step.Dirs = append(step.Dirs, entry.Name)
		} else {
			step.Files = append(step.Files, entry.Name)
		}
	}
	return step, nil
}
