package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"registration-service/internal/usecase"
	"registration-service/pkg/response"
)

type ReferralHandler struct {
	ledger *usecase.ReferralLedger
	logger *zap.Logger
}

func NewReferralHandler(ledger *usecase.ReferralLedger, logger *zap.Logger) *ReferralHandler {
	return &ReferralHandler{ledger: ledger, logger: logger}
}

type validateReferralRequest struct {
	ReferralCode string `json:"referralCode"`
}

// Validate always answers 200; the verdict is in the body. An invalid code
// is an expected outcome, not an error.
func (h *ReferralHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ledger.Validate(r.Context(), req.ReferralCode)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
