package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"ideabox/internal/models"
	"ideabox/internal/services"
	"ideabox/internal/utils"
)

type OTPHandler struct {
	ideaService services.IdeaService
}

func NewOTPHandler(ideaService services.IdeaService) *OTPHandler {
	return &OTPHandler{ideaService: ideaService}
}

type verifyResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// RequestOTP answers 200 as soon as the code is stored; the email goes out
// in the background.
func (h *OTPHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPRequest
	if err := utils.DecodeJSONBody(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON for RequestOTP")
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.ideaService.RequestCode(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "verification code sent"})
}

func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.OTPVerifyRequest
	if err := utils.DecodeJSONBody(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON for VerifyOTP")
		utils.SendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.ideaService.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, verifyResponse{
		Success:           true,
		Message:           "code verified",
		VerificationToken: token,
	})
}
