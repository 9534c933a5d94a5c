package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"registration-service/internal/usecase"
	"registration-service/pkg/middleware"
	"registration-service/pkg/response"
)

type AdminHandler struct {
	authUC     *usecase.AuthUsecase
	adminTTL   time.Duration
	production bool
	logger     *zap.Logger
}

func NewAdminHandler(authUC *usecase.AuthUsecase, adminTTL time.Duration, production bool, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{authUC: authUC, adminTTL: adminTTL, production: production, logger: logger}
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the fixed allow-list and sets the short-lived admin session
// cookie alongside returning the token.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authUC.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.adminTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
	response.JSON(w, http.StatusOK, map[string]any{"token": token})
}

// LookupAccount resolves a participant identifier to its account for the
// admin dashboard. The lookup is logged against the acting admin.
func (h *AdminHandler) LookupAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.authUC.AccountByParticipantID(r.Context(), chi.URLParam(r, "participantID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if adminEmail, ok := middleware.EmailFromContext(r.Context()); ok {
		h.logger.Info("admin account lookup",
			zap.String("admin", adminEmail),
			zap.String("participant_id", account.ParticipantID))
	}
	response.JSON(w, http.StatusOK, map[string]any{"account": account})
}
