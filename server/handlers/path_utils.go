package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ebogdum/jfsio/internal/pathutil"
)

// requestPath returns the cleaned volume path captured by a route's
// trailing wildcard. Backslashes and paths escaping the root are rejected.
func requestPath(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "*")
	if strings.Contains(raw, "\\") {
		return "", errInvalidPath
	}
	p, err := pathutil.Clean("/" + raw)
	if err != nil {
		return "", errInvalidPath
	}
	return p, nil
}
