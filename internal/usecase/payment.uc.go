package usecase

import (
	"context"

	"go.uber.org/zap"

	"registration-service/internal/pricing"
	"registration-service/internal/provider/razorpay"
	"registration-service/internal/repository"
	"registration-service/pkg/xerrors"
)

// PaymentGateway is what the payment usecase needs from the external
// processor; the razorpay client satisfies it, tests fake it.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// OrderDetails is what browser checkout needs to collect the payment.
type OrderDetails struct {
	OrderID     string `json:"orderId"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	KeyID       string `json:"keyId"`
	TierCode    string `json:"tier"`
}

// PaymentUsecase drives an account through unpaid → order pending → paid.
// Paid is terminal here; nothing moves an account back.
type PaymentUsecase struct {
	repo    repository.AccountRepository
	engine  *pricing.Engine
	gateway PaymentGateway
	logger  *zap.Logger
}

func NewPaymentUsecase(repo repository.AccountRepository, engine *pricing.Engine, gateway PaymentGateway, logger *zap.Logger) *PaymentUsecase {
	return &PaymentUsecase{repo: repo, engine: engine, gateway: gateway, logger: logger}
}

// CreateOrder resolves the account's tier and requests a gateway order for
// that exact minor-unit amount. Only accounts with a verified email may open
// an order. The order id and amount are persisted before the order is handed
// back, so a later verify can cross-check them.
func (uc *PaymentUsecase) CreateOrder(ctx context.Context, accountID string) (*OrderDetails, error) {
	account, err := uc.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.IsPaid {
		return nil, xerrors.ErrAlreadyPaid
	}
	if !account.EmailVerified {
		return nil, xerrors.ErrEmailNotVerified
	}

	tier := uc.engine.Resolve(account.Email)
	order, err := uc.gateway.CreateOrder(ctx, tier.AmountMinor(), tier.Currency, account.ParticipantID)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.SetOrder(ctx, account.ID, order.ID, order.Amount); err != nil {
		return nil, err
	}

	uc.logger.Info("order created",
		zap.String("account_id", account.ID),
		zap.String("order_id", order.ID),
		zap.Int64("amount_minor", order.Amount),
		zap.String("tier", tier.Code))

	return &OrderDetails{
		OrderID:     order.ID,
		AmountMinor: order.Amount,
		Currency:    order.Currency,
		KeyID:       uc.gateway.KeyID(),
		TierCode:    tier.Code,
	}, nil
}

// Verify consumes the gateway callback. Only an exact signature match flips
// isPaid; a repeat call on a paid account is a safe no-op. Signature
// mismatches are definitive failures, never retried here.
func (uc *PaymentUsecase) Verify(ctx context.Context, accountID, orderID, paymentID, signature string) error {
	account, err := uc.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsPaid {
		uc.logger.Info("verify on already-paid account, no-op",
			zap.String("account_id", account.ID))
		return nil
	}
	if account.OrderID == nil {
		return xerrors.ErrNoPendingOrder
	}
	if *account.OrderID != orderID {
		return xerrors.ErrOrderMismatch
	}
	if !uc.gateway.VerifySignature(orderID, paymentID, signature) {
		uc.logger.Warn("payment signature mismatch",
			zap.String("account_id", account.ID),
			zap.String("order_id", orderID))
		return xerrors.ErrSignatureMismatch
	}

	if err := uc.repo.MarkPaid(ctx, account.ID, paymentID, signature); err != nil {
		return err
	}
	uc.logger.Info("payment verified",
		zap.String("account_id", account.ID),
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID))
	return nil
}
