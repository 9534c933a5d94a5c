package repository

import (
	"context"
	"time"

	"registration-service/internal/domain"
)

// AccountRepository is the narrow store surface the core needs. The store is
// the sole arbiter of uniqueness (email, phone, participant id) and of the
// atomic referral-count update.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	GetByParticipantID(ctx context.Context, participantID string) (*domain.Account, error)
	ParticipantIDExists(ctx context.Context, participantID string) (bool, error)

	SetOTP(ctx context.Context, accountID string, purpose domain.OTPPurpose, code string, expiry time.Time) error
	ClearOTP(ctx context.Context, accountID string, purpose domain.OTPPurpose) error
	MarkEmailVerified(ctx context.Context, accountID string) error
	UpdatePassword(ctx context.Context, accountID, passwordHash string) error

	// IncrementReferralCount adds exactly 1 to the referrer's count in a
	// single store operation. Callers never read-modify-write the count.
	IncrementReferralCount(ctx context.Context, participantID string) error

	SetOrder(ctx context.Context, accountID, orderID string, amountMinor int64) error
	MarkPaid(ctx context.Context, accountID, paymentID, signature string) error
}
