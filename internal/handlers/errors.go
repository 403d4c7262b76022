package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"ideabox/internal/services"
	"ideabox/internal/utils"
)

// statusFor maps service errors to HTTP status codes and client-safe
// messages. Anything unrecognised is reported as a generic 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrDuplicate):
		return http.StatusForbidden, services.ErrDuplicate.Error()
	case errors.Is(err, services.ErrInvalidOTP):
		return http.StatusUnauthorized, services.ErrInvalidOTP.Error()
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, services.ErrUnauthorized.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	utils.SendJSONError(w, message, code)
}
