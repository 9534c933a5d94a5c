package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/internal/domain"
	"registration-service/internal/mailer"
	"registration-service/internal/repository"
	"registration-service/pkg/jwtutil"
	"registration-service/pkg/utils"
	"registration-service/pkg/xerrors"
)

// AuthUsecase is the credential service: registration, login, admin login,
// email verification and password reset on top of the identity registry and
// the OTP service.
type AuthUsecase struct {
	repo      repository.AccountRepository
	registry  *IdentityRegistry
	otp       *OTPService
	referrals *ReferralLedger
	mailer    mailer.Mailer
	tokens    *jwtutil.Manager
	admins    []config.AdminCredential
	logger    *zap.Logger
}

func NewAuthUsecase(
	repo repository.AccountRepository,
	registry *IdentityRegistry,
	otp *OTPService,
	referrals *ReferralLedger,
	m mailer.Mailer,
	tokens *jwtutil.Manager,
	admins []config.AdminCredential,
	logger *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		repo:      repo,
		registry:  registry,
		otp:       otp,
		referrals: referrals,
		mailer:    m,
		tokens:    tokens,
		admins:    admins,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	ReferralCode string
}

// Register validates and normalizes the request before any I/O, issues a
// participant identifier, and persists the account. A unique-constraint hit
// on the identifier is a collision and retried with a fresh one; duplicate
// email or phone is a conflict surfaced to the caller.
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*domain.Account, string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, "", xerrors.ErrNameRequired
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		return nil, "", xerrors.ErrInvalidEmailFormat
	}

	phone := utils.NormalizePhone(req.Phone)
	if !utils.ValidatePhone(phone) {
		return nil, "", xerrors.ErrInvalidPhoneFormat
	}

	if !utils.ValidatePassword(req.Password) {
		return nil, "", xerrors.ErrWeakPassword
	}

	var referredBy *string
	if req.ReferralCode != "" {
		result, err := uc.referrals.Validate(ctx, req.ReferralCode)
		if err != nil {
			return nil, "", err
		}
		if !result.Valid {
			return nil, "", xerrors.ErrInvalidReferralCode
		}
		code := result.Referrer.Code
		referredBy = &code
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		ReferredBy:   referredBy,
	}

	if err := uc.createWithFreshID(ctx, account); err != nil {
		return nil, "", err
	}

	uc.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("participant_id", account.ParticipantID))

	if referredBy != nil {
		if err := uc.referrals.Credit(ctx, *referredBy); err != nil {
			// The account exists; a lost credit is logged, not fatal.
			uc.logger.Error("referral credit failed",
				zap.String("referral_code", *referredBy), zap.Error(err))
		}
	}

	uc.sendOTP(ctx, account, domain.OTPPurposeVerifyEmail)

	token, err := uc.tokens.IssueUser(account.ID, account.Email)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// createWithFreshID inserts the account, regenerating the participant
// identifier whenever the store reports it already taken. The store's unique
// constraint is the safety net against concurrent duplicate generation.
func (uc *AuthUsecase) createWithFreshID(ctx context.Context, account *domain.Account) error {
	for attempt := 0; attempt < uc.registry.maxAttempts; attempt++ {
		pid, err := uc.registry.Generate(ctx)
		if err != nil {
			return err
		}
		account.ParticipantID = pid

		err = uc.repo.Create(ctx, account)
		if errors.Is(err, xerrors.ErrParticipantIDTaken) {
			uc.logger.Warn("participant id lost insert race, regenerating",
				zap.String("participant_id", pid))
			continue
		}
		return err
	}
	return xerrors.ErrExhaustedRetries
}

// Login authenticates by email or phone. Unknown identifier and wrong
// password collapse into one generic error so callers cannot enumerate
// accounts; the distinction is logged internally.
func (uc *AuthUsecase) Login(ctx context.Context, identifier, password string) (*domain.Account, string, error) {
	var (
		account *domain.Account
		err     error
	)
	if strings.Contains(identifier, "@") {
		account, err = uc.repo.GetByEmail(ctx, utils.NormalizeEmail(identifier))
	} else {
		account, err = uc.repo.GetByPhone(ctx, utils.NormalizePhone(identifier))
	}
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			uc.logger.Info("login failed: unknown identifier")
			return nil, "", xerrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		uc.logger.Info("login failed: wrong password", zap.String("account_id", account.ID))
		return nil, "", xerrors.ErrInvalidCredentials
	}

	token, err := uc.tokens.IssueUser(account.ID, account.Email)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// AdminLogin checks the fixed allow-list. Every entry is compared in
// constant time so a miss costs the same as a hit.
func (uc *AuthUsecase) AdminLogin(_ context.Context, email, password string) (string, error) {
	email = utils.NormalizeEmail(email)

	matched := false
	for _, admin := range uc.admins {
		emailOK := subtle.ConstantTimeCompare([]byte(admin.Email), []byte(email)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(admin.Password), []byte(password)) == 1
		if emailOK && passOK {
			matched = true
		}
	}
	if !matched {
		uc.logger.Info("admin login rejected")
		return "", xerrors.ErrInvalidCredentials
	}
	return uc.tokens.IssueAdmin(email)
}

// ForgotPassword issues a reset code when the account exists and stays
// silent when it does not; the handler answers identically either way. The
// code is returned so non-production environments can echo it.
func (uc *AuthUsecase) ForgotPassword(ctx context.Context, email string) (string, error) {
	account, err := uc.repo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			uc.logger.Info("forgot-password for unknown email")
			return "", nil
		}
		return "", err
	}
	return uc.sendOTP(ctx, account, domain.OTPPurposePasswordReset), nil
}

// ResetPassword consumes a pending reset code and replaces the password.
func (uc *AuthUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return xerrors.ErrWeakPassword
	}

	account, err := uc.repo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			// Same surface as a wrong code; no enumeration.
			return xerrors.ErrOTPNotFound
		}
		return err
	}

	if err := uc.otp.Verify(ctx, account, domain.OTPPurposePasswordReset, code); err != nil {
		return err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := uc.repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}
	uc.logger.Info("password reset", zap.String("account_id", account.ID))
	return nil
}

// VerifyEmail consumes a pending verification code and flips the flag.
func (uc *AuthUsecase) VerifyEmail(ctx context.Context, email, code string) error {
	account, err := uc.repo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return xerrors.ErrOTPNotFound
		}
		return err
	}
	if err := uc.otp.Verify(ctx, account, domain.OTPPurposeVerifyEmail, code); err != nil {
		return err
	}
	return uc.repo.MarkEmailVerified(ctx, account.ID)
}

// ResendVerification reissues the email verification code. Unknown emails
// are silently ignored; the handler answers identically either way.
func (uc *AuthUsecase) ResendVerification(ctx context.Context, email string) error {
	account, err := uc.repo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			uc.logger.Info("resend-verification for unknown email")
			return nil
		}
		return err
	}
	if account.EmailVerified {
		return xerrors.ErrAlreadyVerified
	}
	uc.sendOTP(ctx, account, domain.OTPPurposeVerifyEmail)
	return nil
}

// Me returns the caller's account.
func (uc *AuthUsecase) Me(ctx context.Context, accountID string) (*domain.Account, error) {
	return uc.repo.GetByID(ctx, accountID)
}

// AccountByParticipantID is the admin-side lookup by public identifier.
func (uc *AuthUsecase) AccountByParticipantID(ctx context.Context, code string) (*domain.Account, error) {
	code = uc.registry.Canonicalize(code)
	if !uc.registry.ValidFormat(code) {
		return nil, xerrors.ErrNotFound
	}
	return uc.registry.Owner(ctx, code)
}

// sendOTP issues a code and hands it to the mailer. Delivery failures are
// logged and swallowed; the caller can always request a resend.
func (uc *AuthUsecase) sendOTP(ctx context.Context, account *domain.Account, purpose domain.OTPPurpose) string {
	code, _, err := uc.otp.Generate(ctx, account.ID, purpose)
	if err != nil {
		uc.logger.Error("otp generation failed",
			zap.String("account_id", account.ID), zap.Error(err))
		return ""
	}
	if err := uc.mailer.SendOTP(ctx, account.Email, purpose, code); err != nil {
		uc.logger.Error("otp delivery failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}
	return code
}
