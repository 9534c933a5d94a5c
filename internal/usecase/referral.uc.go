package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"registration-service/pkg/xerrors"
)

type referralStore interface {
	IncrementReferralCount(ctx context.Context, participantID string) error
}

// ReferrerInfo is the only referrer detail ever exposed to callers.
type ReferrerInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ReferralResult is the outcome of validating a submitted code.
type ReferralResult struct {
	Valid    bool          `json:"valid"`
	Referrer *ReferrerInfo `json:"referrer,omitempty"`
}

// ReferralLedger validates referral codes against the identity registry and
// credits referrers atomically through the store.
type ReferralLedger struct {
	registry *IdentityRegistry
	store    referralStore
	logger   *zap.Logger
}

func NewReferralLedger(registry *IdentityRegistry, store referralStore, logger *zap.Logger) *ReferralLedger {
	return &ReferralLedger{registry: registry, store: store, logger: logger}
}

// Validate normalizes and checks a submitted code. Malformed codes are
// rejected before any store lookup.
func (l *ReferralLedger) Validate(ctx context.Context, code string) (ReferralResult, error) {
	code = l.registry.Canonicalize(code)
	if !l.registry.ValidFormat(code) {
		return ReferralResult{Valid: false}, nil
	}

	owner, err := l.registry.Owner(ctx, code)
	if errors.Is(err, xerrors.ErrNotFound) {
		return ReferralResult{Valid: false}, nil
	}
	if err != nil {
		return ReferralResult{}, err
	}

	return ReferralResult{
		Valid:    true,
		Referrer: &ReferrerInfo{Name: owner.Name, Code: owner.ReferralCode()},
	}, nil
}

// Credit adds exactly one to the referrer's count via the store's atomic
// increment. The code must already be canonical and known-valid.
func (l *ReferralLedger) Credit(ctx context.Context, code string) error {
	if err := l.store.IncrementReferralCount(ctx, code); err != nil {
		return err
	}
	l.logger.Info("referral credited", zap.String("referral_code", code))
	return nil
}
