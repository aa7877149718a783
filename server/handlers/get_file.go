package handlers

import (
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/core"
	jfslog "github.com/ebogdum/jfsio/core/log"
	"github.com/ebogdum/jfsio/fileio"
)

// V1GetFile handles GET and HEAD /v1/files/{path}. Range and conditional
// requests are answered by http.ServeContent over a buffered reader.
func V1GetFile(sess *core.Session, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requestPath(r)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		st, err := sess.Stat(p)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		if st.IsDir() {
			SendErrorResponse(w, logger, errIsDirectory, http.StatusBadRequest)
			return
		}

		f, err := fileio.Open(sess, p, "rb")
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn("Failed to close served file",
					zap.String("path", jfslog.SanitizePath(p)),
					zap.Error(err))
			}
		}()

		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeContent(w, r, path.Base(p), st.ModTime(), f)
	}
}
