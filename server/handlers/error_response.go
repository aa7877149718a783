package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"syscall"

	"go.uber.org/zap"

	"github.com/ebogdum/jfsio/auth"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	errInvalidPath = errors.New("invalid path")
	errIsDirectory = errors.New("path is a directory")
)

// classify maps an error to an HTTP status and error code.
func classify(err error, defaultStatus int) (int, string) {
	switch {
	case errors.Is(err, errInvalidPath):
		return http.StatusBadRequest, "INVALID_PATH"
	case errors.Is(err, errIsDirectory), errors.Is(err, syscall.EISDIR):
		return http.StatusBadRequest, "IS_A_DIRECTORY"
	case errors.Is(err, syscall.ENOTDIR):
		return http.StatusBadRequest, "NOT_A_DIRECTORY"
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, "FILE_NOT_FOUND"
	case errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, auth.ErrAuthenticationFailed):
		return http.StatusUnauthorized, "AUTHENTICATION_FAILED"
	case errors.Is(err, syscall.ELOOP), errors.Is(err, syscall.ENAMETOOLONG):
		return http.StatusBadRequest, "INVALID_PATH"
	case errors.Is(err, syscall.ETIMEDOUT):
		return http.StatusGatewayTimeout, "ENGINE_TIMEOUT"
	default:
		return defaultStatus, "INTERNAL_ERROR"
	}
}

// SendErrorResponse sends a standardized JSON error response
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error, defaultStatusCode int) {
	statusCode, errorCode := classify(err, defaultStatusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encErr := json.NewEncoder(w).Encode(ErrorResponse{Code: errorCode, Message: err.Error()}); encErr != nil {
		logger.Error("Failed to encode error response", zap.Error(encErr))
		fmt.Fprint(w, "Internal error occurred")
	}

	logger.Debug("Error response sent",
		zap.String("error_code", errorCode),
		zap.Int("status_code", statusCode),
		zap.Error(err))
}

// SendJSONResponse sends a JSON response with any data structure
func SendJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"Failed to encode response"}`)
	}
}
