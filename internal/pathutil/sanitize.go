// Package pathutil normalizes volume paths and maps them safely onto the
// local filesystem.
package pathutil

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("invalid path")
	ErrEscapesRoot = errors.New("path escapes root")
)

// Clean returns the absolute, clean form of a volume path. Relative paths are
// taken relative to the root. A path whose ".." components climb above the
// root is rejected rather than clamped.
func Clean(p string) (string, error) {
	if err := ValidatePath(p); err != nil {
		return "", err
	}

	depth := 0
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", ErrEscapesRoot
			}
		default:
			depth++
		}
	}
	return path.Clean("/" + strings.TrimPrefix(p, "/")), nil
}

// Split returns the parent directory and final element of a clean path.
// The root splits into ("/", "").
func Split(p string) (parent, name string) {
	if p == "/" {
		return "/", ""
	}
	parent, name = path.Split(p)
	if parent != "/" {
		parent = strings.TrimSuffix(parent, "/")
	}
	return parent, name
}

// IsWithin reports whether p equals dir or lies below it.
func IsWithin(p, dir string) bool {
	if dir == "/" {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// SafeJoin joins root and rel, ensuring the result stays within root even
// after symlinks in existing components are resolved.
func SafeJoin(root, rel string) (string, error) {
	cleanRoot := filepath.Clean(root)

	cleanRel, err := Clean(rel)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(cleanRoot, filepath.FromSlash(strings.TrimPrefix(cleanRel, "/")))

	realRoot, err := filepath.EvalSymlinks(cleanRoot)
	if err != nil {
		realRoot = cleanRoot
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// the file may not exist yet; check its directory instead
		dir := filepath.Dir(joined)
		if dir != cleanRoot {
			if resolvedDir, dirErr := filepath.EvalSymlinks(dir); dirErr == nil {
				if !within(realRoot, resolvedDir) {
					return "", ErrEscapesRoot
				}
			}
		}
		if !within(cleanRoot, joined) {
			return "", ErrEscapesRoot
		}
		return joined, nil
	}

	if !within(realRoot, resolved) {
		return "", ErrEscapesRoot
	}
	return joined, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidatePath rejects empty paths and paths carrying NUL or control
// characters.
func ValidatePath(p string) error {
	if p == "" {
		return ErrInvalidPath
	}
	for _, char := range p {
		if char < 32 && char != '\t' {
			return ErrInvalidPath
		}
	}
	return nil
}
