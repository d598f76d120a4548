package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/logging"
)

// ErrorResponse is the JSON body of every error response. Code is one of the
// core.MapError codes.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// respondError logs the technical error with the request ID and returns the
// operator-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	uerr := core.NewUserError(err)
	status := statusFor(uerr)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", uerr.Technical.Error(),
		"code", uerr.User.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:  uerr.Error(),
		Action: uerr.User.Action,
		Code:   uerr.User.Code,
	})
}

// statusFor maps the core error taxonomy to an HTTP status.
func statusFor(err error) int {
	var (
		srcErr   *core.SourceError
		cfgErr   *core.ConfigError
		storeErr *core.StoreError
	)
	switch {
	case errors.Is(err, core.ErrUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation), errors.As(err, &srcErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &cfgErr):
		return http.StatusConflict
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
