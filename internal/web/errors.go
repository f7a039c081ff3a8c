package web

// errors.go turns service errors into JSON responses.
//
//  1. Handler calls respondError(w, r, err)
//  2. The status comes from the error's sentinel via statusFor
//  3. core.MapError supplies the user message and support code
//  4. The technical error is logged with the request ID

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/csvimport"
	"github.com/JonMunkholm/detailflow/internal/lock"
	"github.com/JonMunkholm/detailflow/internal/logging"
)

var (
	errMissingBusiness = errors.New("missing or invalid business id")
	errBadRequest      = errors.New("malformed request body")
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Info("request rejected", args...)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, csvimport.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, csvimport.ErrNotReady):
		return http.StatusUnprocessableEntity
	case errors.Is(err, csvimport.ErrSessionBusy),
		errors.Is(err, lock.ErrNotObtained):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, csvimport.ErrEmptyFile),
		errors.Is(err, csvimport.ErrUnknownField),
		errors.Is(err, csvimport.ErrUnknownHeader),
		errors.Is(err, errMissingBusiness),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
