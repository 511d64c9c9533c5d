package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/logging"
	"github.com/devaloi/agora/internal/middleware"
	"github.com/devaloi/agora/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps a service error to a status code. Anything that is not a
// service error is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ban *service.BanError
	if errors.As(err, &ban) {
		writeJSON(w, http.StatusForbidden, struct {
			Message   string     `json:"message"`
			BanStatus domain.Ban `json:"banStatus"`
		}{ban.Message, ban.Ban})
		return
	}

	var se *service.Error
	if !errors.As(err, &se) {
		l := logging.Ctx(r.Context())
		l.Error().Err(err).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(se, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(se, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(se, service.ErrInvalidInput), errors.Is(se, service.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(se, service.ErrInvalidCredentials), errors.Is(se, service.ErrInactive):
		status = http.StatusUnauthorized
	}
	writeMessage(w, status, se.Message)
}

// decode reads a JSON body into v. It writes the 400 itself and reports
// false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// actor returns the authenticated user. Routes using it sit behind
// middleware.Auth, so a missing user is a wiring error.
func actor(r *http.Request) domain.User {
	u, _ := middleware.CurrentUser(r.Context())
	return u
}
