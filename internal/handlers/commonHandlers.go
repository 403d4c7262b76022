package handlers

import (
	"net/http"

	"ideabox/internal/utils"
)

// HealthChecker reports store reachability.
type HealthChecker interface {
	Health() map[string]string
}

type CommonHandler struct {
	db             HealthChecker
	mailConfigured bool
}

func NewCommonHandler(db HealthChecker, mailConfigured bool) *CommonHandler {
	return &CommonHandler{db: db, mailConfigured: mailConfigured}
}

func (h *CommonHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Idea Box API",
		"status":  "online",
		"endpoints": map[string]string{
			"health":      "/health (GET)",
			"request_otp": "/otp (POST)",
			"verify_otp":  "/otp/verify (POST)",
			"submit_idea": "/ideas (POST)",
			"get_ideas":   "/ideas (GET)",
			"get_stats":   "/stats (GET)",
		},
	})
}

// HealthHandler answers 503 when the store is unreachable so that probes
// can act on it.
func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	dbHealth := h.db.Health()

	code := http.StatusOK
	status := "OK"
	if dbHealth["status"] != "up" {
		code = http.StatusServiceUnavailable
		status = "DEGRADED"
	}

	utils.RespondWithJSON(w, code, map[string]interface{}{
		"status":          status,
		"database":        dbHealth,
		"email_service":   "smtp",
		"mail_configured": h.mailConfigured,
	})
}

func (h *CommonHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	utils.SendJSONError(w, "route not found", http.StatusNotFound)
}

func (h *CommonHandler) MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	utils.SendJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
}
