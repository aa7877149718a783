package handlers

import (
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/core"
	"github.com/ebogdum/jfsio/wire"
)

// V1Stat handles GET /v1/stat/{path}. Symlinks are described, not
// followed.
func V1Stat(sess *core.Session, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requestPath(r)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		st, err := sess.Lstat(p)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		info := newFileInfo(p, path.Base(p), st)
		if st.IsSymlink() {
			if info.Target, err = sess.Readlink(p); err != nil {
				SendErrorResponse(w, logger, err, http.StatusInternalServerError)
				return
			}
		}
		SendJSONResponse(w, info)
	}
}

// SummaryResponse is the JSON form of a directory tree summary.
type SummaryResponse struct {
	Path  string `json:"path"`
	Size  uint64 `json:"size"`
	Files uint64 `json:"files"`
	Dirs  uint64 `json:"dirs"`
}

// V1Summary handles GET /v1/summary/{path}.
func V1Summary(sess *core.Session, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requestPath(r)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		sum, err := sess.Summary(p)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		SendJSONResponse(w, SummaryResponse{Path: p, Size: sum.Size, Files: sum.Files, Dirs: sum.Dirs})
	}
}

// HealthResponse reports volume capacity.
type HealthResponse struct {
	Status    string `json:"status"`
	Volume    string `json:"volume"`
	Total     uint64 `json:"total_bytes,omitempty"`
	Available uint64 `json:"available_bytes,omitempty"`
}

// V1Health handles GET /health. The volume is healthy when statvfs
// succeeds.
func V1Health(sess *core.Session, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vfs, err := sess.Statvfs()
		if err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			SendJSONResponse(w, HealthResponse{Status: "unavailable", Volume: sess.Name()})
			return
		}
		SendJSONResponse(w, healthOf(sess.Name(), vfs))
	}
}

func healthOf(name string, vfs wire.StatVfs) HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Volume:    name,
		Total:     vfs.Blocks * vfs.Bsize,
		Available: vfs.Bavail * vfs.Bsize,
	}
}
