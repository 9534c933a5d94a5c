package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/internal/domain"
	"registration-service/internal/pricing"
	"registration-service/internal/provider/razorpay"
	"registration-service/internal/repository"
	"registration-service/pkg/xerrors"
)

const testGatewaySecret = "gw-secret"

// fakeGateway signs with a shared test secret so tests can produce both
// valid and corrupted callback signatures.
type fakeGateway struct {
	orders int
	fail   bool
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*razorpay.Order, error) {
	if g.fail {
		return nil, xerrors.ErrGatewayUnavailable
	}
	g.orders++
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%03d", g.orders),
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(testGatewaySecret, orderID, paymentID, signature)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func testPricingEngine() *pricing.Engine {
	return pricing.NewEngine(config.PricingConfig{
		InstituteDomain: "inst.edu",
		OfferActive:     true,
		Currency:        "INR",
		InstituteOffer:  349,
		Institute:       449,
		ExternalOffer:   549,
		External:        649,
	})
}

type paymentFixture struct {
	uc      *PaymentUsecase
	repo    *repository.MemoryAccountRepository
	gateway *fakeGateway
	account *domain.Account
}

func newPaymentFixture(t *testing.T, email string) *paymentFixture {
	t.Helper()
	repo := repository.NewMemoryAccountRepository()
	account := &domain.Account{
		ID:            "acc-pay",
		Name:          "Payer",
		Email:         email,
		Phone:         "1234567890",
		ParticipantID: "OJPAY1",
		EmailVerified: true,
	}
	require.NoError(t, repo.Create(context.Background(), account))
	gateway := &fakeGateway{}
	return &paymentFixture{
		uc:      NewPaymentUsecase(repo, testPricingEngine(), gateway, zap.NewNop()),
		repo:    repo,
		gateway: gateway,
		account: account,
	}
}

func TestCreateOrderPersistsPendingOrder(t *testing.T) {
	f := newPaymentFixture(t, "payer@inst.edu")
	ctx := context.Background()

	details, err := f.uc.CreateOrder(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_001", details.OrderID)
	assert.Equal(t, int64(34900), details.AmountMinor)
	assert.Equal(t, "INR", details.Currency)
	assert.Equal(t, "rzp_test_key", details.KeyID)
	assert.Equal(t, "institute_offer", details.TierCode)

	fresh, err := f.repo.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOrderPending, fresh.PaymentStatus())
	require.NotNil(t, fresh.OrderID)
	assert.Equal(t, details.OrderID, *fresh.OrderID)
	require.NotNil(t, fresh.AmountPaid)
	assert.Equal(t, int64(34900), *fresh.AmountPaid)
}

func TestCreateOrderExternalTier(t *testing.T) {
	f := newPaymentFixture(t, "payer@gmail.com")

	details, err := f.uc.CreateOrder(context.Background(), f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(54900), details.AmountMinor)
	assert.Equal(t, "external_offer", details.TierCode)
}

func TestCreateOrderRequiresVerifiedEmail(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	account := &domain.Account{
		ID:            "acc-unverified",
		Name:          "Payer",
		Email:         "payer@inst.edu",
		Phone:         "1234567890",
		ParticipantID: "OJPAY2",
	}
	require.NoError(t, repo.Create(context.Background(), account))
	gateway := &fakeGateway{}
	uc := NewPaymentUsecase(repo, testPricingEngine(), gateway, zap.NewNop())

	_, err := uc.CreateOrder(context.Background(), account.ID)
	assert.ErrorIs(t, err, xerrors.ErrEmailNotVerified)
	assert.Zero(t, gateway.orders, "no gateway order for an unverified account")
}

func TestCreateOrderGatewayFailureLeavesAccountUnpaid(t *testing.T) {
	f := newPaymentFixture(t, "payer@inst.edu")
	f.gateway.fail = true
	ctx := context.Background()

	_, err := f.uc.CreateOrder(ctx, f.account.ID)
	assert.ErrorIs(t, err, xerrors.ErrGatewayUnavailable)

	fresh, err := f.repo.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentUnpaid, fresh.PaymentStatus())
	assert.Nil(t, fresh.OrderID)
}

func TestVerifyHappyPathAndIdempotence(t *testing.T) {
	f := newPaymentFixture(t, "payer@inst.edu")
	ctx := context.Background()

	details, err := f.uc.CreateOrder(ctx, f.account.ID)
	require.NoError(t, err)

	sig := razorpay.Sign(testGatewaySecret, details.OrderID, "pay_001")
	require.NoError(t, f.uc.Verify(ctx, f.account.ID, details.OrderID, "pay_001", sig))

	fresh, err := f.repo.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, fresh.PaymentStatus())
	require.NotNil(t, fresh.PaymentID)
	assert.Equal(t, "pay_001", *fresh.PaymentID)

	// A repeat callback is a success no-op; nothing about the record moves.
	require.NoError(t, f.uc.Verify(ctx, f.account.ID, details.OrderID, "pay_001", sig))
	again, err := f.repo.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay_001", *again.PaymentID)

	// Even a differing repeat on a paid account does not disturb it.
	require.NoError(t, f.uc.Verify(ctx, f.account.ID, "order_other", "pay_999", "junk"))
	again, err = f.repo.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay_001", *again.PaymentID)
	assert.True(t, again.IsPaid)
}

func TestVerifyCorruptedSignatureRejected(t *testing.T) {
	f := newPaymentFixture(t, "payer@inst.edu")
	ctx := context.Background()

	details, err := f.uc.CreateOrder(ctx, f.account.ID)
	require.NoError(t, err)

	sig := razorpay.Sign(testGatewaySecret, details.OrderID, "pay_001")
	corrupted := []byte(sig)
	if corrupted[0] == 'a' {
		corrupted[0] = 'b'
	} else {
		corrupted[0] = 'a'
	}

	err = f.uc.Verify(ctx, f.account.ID, details.OrderID, "pay_001", string(corrupted))
	assert.ErrorIs(t, err, xerrors.ErrSignatureMismatch)

	fresh, err := f.repo.GetByID(ctx, f.account.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsPaid)
	assert.Equal(t, domain.PaymentOrderPending, fresh.PaymentStatus())
}

func TestVerifyOrderChecks(t *testing.T) {
	f := newPaymentFixture(t, "payer@inst.edu")
	ctx := context.Background()

	// No order yet.
	err := f.uc.Verify(ctx, f.account.ID, "order_001", "pay_001", "sig")
	assert.ErrorIs(t, err, xerrors.ErrNoPendingOrder)

	_, err = f.uc.CreateOrder(ctx, f.account.ID)
	require.NoError(t, err)

	// Callback for a different order than the pending one.
	sig := razorpay.Sign(testGatewaySecret, "order_wrong", "pay_001")
	err = f.uc.Verify(ctx, f.account.ID, "order_wrong", "pay_001", sig)
	assert.ErrorIs(t, err, xerrors.ErrOrderMismatch)
}

func TestCreateOrderOnPaidAccount(t *testing.T) {
	f := newPaymentFixture(t, "payer@inst.edu")
	ctx := context.Background()

	details, err := f.uc.CreateOrder(ctx, f.account.ID)
	require.NoError(t, err)
	sig := razorpay.Sign(testGatewaySecret, details.OrderID, "pay_001")
	require.NoError(t, f.uc.Verify(ctx, f.account.ID, details.OrderID, "pay_001", sig))

	_, err = f.uc.CreateOrder(ctx, f.account.ID)
	assert.ErrorIs(t, err, xerrors.ErrAlreadyPaid)
}
