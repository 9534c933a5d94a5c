package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"registration-service/internal/usecase"
	"registration-service/pkg/middleware"
	"registration-service/pkg/response"
	"registration-service/pkg/xerrors"
)

type PaymentHandler struct {
	paymentUC *usecase.PaymentUsecase
	logger    *zap.Logger
}

func NewPaymentHandler(paymentUC *usecase.PaymentUsecase, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC, logger: logger}
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, xerrors.ErrUnauthorized)
		return
	}

	order, err := h.paymentUC.CreateOrder(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, order)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpayOrderId"`
	PaymentID string `json:"razorpayPaymentId"`
	Signature string `json:"razorpaySignature"`
}

// Verify consumes the gateway callback fields. A signature mismatch is a
// definitive failure reported as success=false; a repeat call after success
// is a no-op that still reports success=true.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, xerrors.ErrUnauthorized)
		return
	}

	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		response.Error(w, http.StatusBadRequest, "missing payment fields")
		return
	}

	err := h.paymentUC.Verify(r.Context(), accountID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		if errors.Is(err, xerrors.ErrSignatureMismatch) {
			response.JSON(w, http.StatusOK, map[string]any{
				"success": false,
				"message": err.Error(),
			})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"success": true})
}
