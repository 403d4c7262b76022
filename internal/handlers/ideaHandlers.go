package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ideabox/internal/models"
	"ideabox/internal/services"
	"ideabox/internal/utils"
)

type IdeaHandler struct {
	ideaService services.IdeaService
}

func NewIdeaHandler(ideaService services.IdeaService) *IdeaHandler {
	return &IdeaHandler{ideaService: ideaService}
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	IdeaID  int64  `json:"idea_id"`
}

type listResponse struct {
	Success bool          `json:"success"`
	Total   int           `json:"total"`
	Ideas   []models.Idea `json:"ideas"`
}

type statsResponse struct {
	Success    bool                   `json:"success"`
	TotalIdeas int64                  `json:"total_ideas"`
	ByCategory []models.CategoryCount `json:"by_category"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts RFC 3339 and zone-less ISO-8601 times, the latter
// read as UTC. An empty string yields the zero time.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func (h *IdeaHandler) SubmitIdea(w http.ResponseWriter, r *http.Request) {
	var req models.IdeaSubmission
	if err := utils.DecodeJSONBody(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON for SubmitIdea")
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	submittedAt, err := parseTimestamp(req.Timestamp)
	if err != nil {
		utils.SendJSONError(w, "invalid timestamp, expected ISO-8601", http.StatusBadRequest)
		return
	}

	token := req.VerificationToken
	if token == "" {
		token = bearerToken(r)
	}

	idea, err := h.ideaService.Submit(r.Context(), services.SubmitInput{
		Email:             req.Email,
		Body:              req.Idea,
		Category:          req.Category,
		SubmittedAt:       submittedAt,
		VerificationToken: token,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, submitResponse{
		Success: true,
		Message: "idea submitted",
		IdeaID:  idea.ID,
	})
}

func (h *IdeaHandler) GetIdeas(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	ideas, err := h.ideaService.ListIdeas(r.Context(), category)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Debug().Int("count", len(ideas)).Str("category", category).Msg("Ideas retrieved")
	utils.RespondWithJSON(w, http.StatusOK, listResponse{Success: true, Total: len(ideas), Ideas: ideas})
}

func (h *IdeaHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ideaService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, statsResponse{
		Success:    true,
		TotalIdeas: stats.TotalIdeas,
		ByCategory: stats.ByCategory,
	})
}
