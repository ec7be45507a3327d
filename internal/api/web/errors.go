package web

import (
	"encoding/json"
	"net/http"

	"dbdwatch/pkg/errors"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrUnavailable), errors.Is(err, errors.ErrArtifactLoad):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown to clients; internal errors stay generic
func userMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func (h *Handler) report(r *http.Request, err error, status int) {
	if status >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "path", r.URL.Path, "status", status, "error", err)
		return
	}
	h.log.Debugw("Request rejected", "path", r.URL.Path, "status", status, "error", err)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	h.report(r, err, status)
	writeJSON(w, status, map[string]string{"error": userMessage(err, status)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
