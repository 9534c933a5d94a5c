package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"registration-service/internal/domain"
	"registration-service/pkg/xerrors"
)

// MemoryAccountRepository is a map-backed AccountRepository for development
// mode and tests. It enforces the same uniqueness rules the Postgres schema
// does, and its referral increment is atomic under the repository mutex.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account // keyed by account id
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		switch {
		case a.Email == account.Email:
			return xerrors.ErrEmailTaken
		case a.Phone == account.Phone:
			return xerrors.ErrPhoneTaken
		case a.ParticipantID == account.ParticipantID:
			return xerrors.ErrParticipantIDTaken
		}
	}

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id })
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *MemoryAccountRepository) GetByPhone(_ context.Context, phone string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Phone == phone })
}

func (r *MemoryAccountRepository) GetByParticipantID(_ context.Context, participantID string) (*domain.Account, error) {
	// Exact, case-sensitive match; the registry canonicalizes before lookup.
	return r.find(func(a *domain.Account) bool { return a.ParticipantID == participantID })
}

func (r *MemoryAccountRepository) ParticipantIDExists(ctx context.Context, participantID string) (bool, error) {
	_, err := r.GetByParticipantID(ctx, participantID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MemoryAccountRepository) SetOTP(_ context.Context, accountID string, purpose domain.OTPPurpose, code string, expiry time.Time) error {
	return r.update(accountID, func(a *domain.Account) {
		if purpose == domain.OTPPurposePasswordReset {
			a.ResetOTP, a.ResetOTPExpiry = &code, &expiry
		} else {
			a.VerifyOTP, a.VerifyOTPExpiry = &code, &expiry
		}
	})
}

func (r *MemoryAccountRepository) ClearOTP(_ context.Context, accountID string, purpose domain.OTPPurpose) error {
	return r.update(accountID, func(a *domain.Account) {
		if purpose == domain.OTPPurposePasswordReset {
			a.ResetOTP, a.ResetOTPExpiry = nil, nil
		} else {
			a.VerifyOTP, a.VerifyOTPExpiry = nil, nil
		}
	})
}

func (r *MemoryAccountRepository) MarkEmailVerified(_ context.Context, accountID string) error {
	return r.update(accountID, func(a *domain.Account) { a.EmailVerified = true })
}

func (r *MemoryAccountRepository) UpdatePassword(_ context.Context, accountID, passwordHash string) error {
	return r.update(accountID, func(a *domain.Account) { a.PasswordHash = passwordHash })
}

func (r *MemoryAccountRepository) IncrementReferralCount(_ context.Context, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ParticipantID == participantID {
			a.ReferralCount++
			a.UpdatedAt = time.Now()
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (r *MemoryAccountRepository) SetOrder(_ context.Context, accountID, orderID string, amountMinor int64) error {
	return r.update(accountID, func(a *domain.Account) {
		a.OrderID = &orderID
		a.AmountPaid = &amountMinor
	})
}

func (r *MemoryAccountRepository) MarkPaid(_ context.Context, accountID, paymentID, signature string) error {
	return r.update(accountID, func(a *domain.Account) {
		if a.IsPaid {
			return
		}
		a.IsPaid = true
		a.PaymentID = &paymentID
		a.PaymentSignature = &signature
	})
}

func (r *MemoryAccountRepository) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *MemoryAccountRepository) update(accountID string, mutate func(*domain.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return xerrors.ErrNotFound
	}
	mutate(a)
	a.UpdatedAt = time.Now()
	return nil
}
