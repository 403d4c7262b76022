package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Error marshalling JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// SendJSONError writes a {success:false, message} body.
func SendJSONError(w http.ResponseWriter, message string, code int) {
	RespondWithJSON(w, code, APIResponse{Success: false, Message: message})
}

// DecodeJSONBody decodes a request body capped at 1MB.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}
