package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"registration-service/internal/domain"
	"registration-service/pkg/xerrors"
)

type otpStore interface {
	SetOTP(ctx context.Context, accountID string, purpose domain.OTPPurpose, code string, expiry time.Time) error
	ClearOTP(ctx context.Context, accountID string, purpose domain.OTPPurpose) error
}

// OTPService issues and verifies the short numeric codes used for email
// verification and password reset. The two purposes occupy independent
// slots on the account and never satisfy each other.
type OTPService struct {
	store  otpStore
	digits int
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewOTPService(store otpStore, digits int, ttl time.Duration, logger *zap.Logger) *OTPService {
	return &OTPService{
		store:  store,
		digits: digits,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the time source for expiry tests.
func (s *OTPService) WithClock(now func() time.Time) *OTPService {
	s.now = now
	return s
}

// Generate mints a zero-padded numeric code, persists it with its expiry on
// the account, and returns it for delivery.
func (s *OTPService) Generate(ctx context.Context, accountID string, purpose domain.OTPPurpose) (string, time.Time, error) {
	code := randomCode(s.digits)
	expiry := s.now().Add(s.ttl)
	if err := s.store.SetOTP(ctx, accountID, purpose, code, expiry); err != nil {
		return "", time.Time{}, err
	}
	s.logger.Debug("otp issued",
		zap.String("account_id", accountID),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", expiry))
	return code, expiry, nil
}

// Verify checks a submitted code against the pending one for the purpose.
// Order matters: absent beats expired beats mismatched. A matched code is
// cleared so it can only be used once. Codes are compared as digit strings;
// leading zeros are significant.
func (s *OTPService) Verify(ctx context.Context, account *domain.Account, purpose domain.OTPPurpose, submitted string) error {
	stored, expiry := account.OTP(purpose)
	if stored == nil || expiry == nil {
		return xerrors.ErrOTPNotFound
	}
	if s.now().After(*expiry) {
		return xerrors.ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(submitted)) != 1 {
		return xerrors.ErrOTPMismatch
	}
	return s.store.ClearOTP(ctx, account.ID, purpose)
}

// randomCode draws a uniform number below 10^digits and formats it with
// leading zeros, so every code has exactly the configured length.
func randomCode(digits int) string {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64())
}
