package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/core"
)

const (
	defaultMaxDepth = 100
	maxMaxDepth     = 1000
)

// DirectoryListingResponse represents the response for directory listing operations
type DirectoryListingResponse struct {
	Path      string     `json:"path"`
	Recursive bool       `json:"recursive"`
	MaxDepth  int        `json:"max_depth,omitempty"`
	Count     int        `json:"count"`
	Items     []FileInfo `json:"items"`
}

// V1ListDirectory handles GET /v1/directories/{path}. With recursive=true
// it walks the tree top-down to max_depth levels; symlinked directories
// are listed but not entered.
func V1ListDirectory(sess *core.Session, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := requestPath(r)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		q := r.URL.Query()
		recursive := q.Get("recursive") == "true"
		maxDepth := defaultMaxDepth
		if v := q.Get("max_depth"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxMaxDepth {
				SendErrorResponse(w, logger, errors.New("max_depth must be between 1 and 1000"), http.StatusBadRequest)
				return
			}
			maxDepth = n
		}

		resp := DirectoryListingResponse{Path: dir, Recursive: recursive, Items: []FileInfo{}}
		if recursive {
			resp.MaxDepth = maxDepth
			resp.Items, err = listTree(sess, dir, maxDepth)
		} else {
			resp.Items, err = listOne(sess, dir)
		}
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		resp.Count = len(resp.Items)
		SendJSONResponse(w, resp)
	}
}

func listOne(sess *core.Session, dir string) ([]FileInfo, error) {
	items := []FileInfo{}
	for entry, err := range sess.Scandir(dir) {
		if err != nil {
			return nil, err
		}
		items = append(items, newFileInfo(entry.Path(), entry.Name, entry.Stat))
	}
	return items, nil
}

func depthBelow(root, dir string) int {
	if dir == root {
		return 0
	}
	rel := strings.TrimPrefix(dir, strings.TrimSuffix(root, "/")+"/")
	return strings.Count(rel, "/") + 1
}

func listTree(sess *core.Session, root string, maxDepth int) ([]FileInfo, error) {
	items := []FileInfo{}
	for step, err := range sess.Walk(root, true) {
		if err != nil {
			return nil, err
		}
		entries, err := listOne(sess, step.Dir)
		if err != nil {
			return nil, err
		}
		items = append(items, entries...)
		if depthBelow(root, step.Dir)+1 >= maxDepth {
			step.Dirs = nil
		}
	}
	return items, nil
}
