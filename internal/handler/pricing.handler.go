package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"registration-service/internal/pricing"
	"registration-service/internal/usecase"
	"registration-service/pkg/jwtutil"
	"registration-service/pkg/response"
)

type PricingHandler struct {
	engine *pricing.Engine
	authUC *usecase.AuthUsecase
	tokens *jwtutil.Manager
	logger *zap.Logger
}

func NewPricingHandler(engine *pricing.Engine, authUC *usecase.AuthUsecase, tokens *jwtutil.Manager, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{engine: engine, authUC: authUC, tokens: tokens, logger: logger}
}

// Get returns all four tiers for anonymous callers; with a valid user token
// it resolves the caller's own tier and paid status instead. A bad token on
// this route degrades to the anonymous view rather than failing.
func (h *PricingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if accountID, ok := h.callerAccountID(r); ok {
		account, err := h.authUC.Me(r.Context(), accountID)
		if err == nil {
			tier := h.engine.Resolve(account.Email)
			response.JSON(w, http.StatusOK, map[string]any{
				"tier":          tier,
				"isPaid":        account.IsPaid,
				"paymentStatus": account.PaymentStatus(),
			})
			return
		}
		h.logger.Warn("pricing: account lookup failed, serving anonymous view",
			zap.String("account_id", accountID), zap.Error(err))
	}

	response.JSON(w, http.StatusOK, map[string]any{"tiers": h.engine.Tiers()})
}

func (h *PricingHandler) callerAccountID(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	tokenStr, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenStr == "" {
		return "", false
	}
	claims, role, err := h.tokens.Verify(tokenStr)
	if err != nil || role != jwtutil.RoleUser {
		return "", false
	}
	return claims.Subject, true
}
