package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"registration-service/internal/usecase"
	"registration-service/pkg/middleware"
	"registration-service/pkg/response"
	"registration-service/pkg/xerrors"
)

type AuthHandler struct {
	authUC     *usecase.AuthUsecase
	production bool
	logger     *zap.Logger
}

func NewAuthHandler(authUC *usecase.AuthUsecase, production bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authUC: authUC, production: production, logger: logger}
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, token, err := h.authUC.Register(r.Context(), usecase.RegisterRequest{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"account": account,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Phone
	}
	if identifier == "" || req.Password == "" {
		writeError(w, h.logger, xerrors.ErrInvalidCredentials)
		return
	}

	account, token, err := h.authUC.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"account": account,
		"token":   token,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// ForgotPassword answers identically whether or not the account exists. In
// non-production environments the code is echoed for testing.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, err := h.authUC.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data := map[string]any{
		"message": "if the account exists, a reset code has been sent",
	}
	if !h.production && code != "" {
		data["otp"] = code
	}
	response.JSON(w, http.StatusOK, data)
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authUC.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authUC.VerifyEmail(r.Context(), req.Email, req.OTP); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"message": "email verified"})
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authUC.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"message": "if the account exists, a verification code has been sent",
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, xerrors.ErrUnauthorized)
		return
	}

	account, err := h.authUC.Me(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"account": account})
}
