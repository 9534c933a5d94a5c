package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/internal/domain"
	"registration-service/internal/repository"
	"registration-service/pkg/jwtutil"
	"registration-service/pkg/xerrors"
)

// captureMailer records every code handed to it instead of sending.
type captureMailer struct {
	sent []sentOTP
}

type sentOTP struct {
	to      string
	purpose domain.OTPPurpose
	code    string
}

func (m *captureMailer) SendOTP(_ context.Context, to string, purpose domain.OTPPurpose, code string) error {
	m.sent = append(m.sent, sentOTP{to: to, purpose: purpose, code: code})
	return nil
}

func (m *captureMailer) last() sentOTP {
	return m.sent[len(m.sent)-1]
}

type authFixture struct {
	uc     *AuthUsecase
	repo   *repository.MemoryAccountRepository
	mailer *captureMailer
	tokens *jwtutil.Manager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewMemoryAccountRepository()
	registry := NewIdentityRegistry(repo, "OJ", 4, 10, logger)
	otp := NewOTPService(repo, 6, 10*time.Minute, logger)
	referrals := NewReferralLedger(registry, repo, logger)
	m := &captureMailer{}
	tokens := jwtutil.NewManager([]byte("test-secret"), "registration-service", 7*24*time.Hour, 2*time.Hour)
	admins := []config.AdminCredential{{Email: "admin@example.com", Password: "letmein-admin"}}
	return &authFixture{
		uc:     NewAuthUsecase(repo, registry, otp, referrals, m, tokens, admins, logger),
		repo:   repo,
		mailer: m,
		tokens: tokens,
	}
}

func validRegister() RegisterRequest {
	return RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Phone:    "9876543210",
		Password: "hunter2hunter2",
	}
}

func TestRegisterNormalizesAndIssuesIdentity(t *testing.T) {
	f := newAuthFixture(t)

	account, token, err := f.uc.Register(context.Background(), RegisterRequest{
		Name:     "  Alice  ",
		Email:    "  Alice@Example.COM ",
		Phone:    "+1 (234) 567-8901",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", account.Name)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "12345678901", account.Phone)
	assert.Regexp(t, `^OJ[0-9A-Z]{4}$`, account.ParticipantID)
	assert.False(t, account.EmailVerified)
	assert.Equal(t, domain.PaymentUnpaid, account.PaymentStatus())

	claims, role, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, jwtutil.RoleUser, role)
	assert.Equal(t, account.ID, claims.Subject)

	// Registration queues a verification code.
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "alice@example.com", f.mailer.last().to)
	assert.Equal(t, domain.OTPPurposeVerifyEmail, f.mailer.last().purpose)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*RegisterRequest)
		wantErr error
	}{
		{"blank name", func(r *RegisterRequest) { r.Name = "   " }, xerrors.ErrNameRequired},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }, xerrors.ErrInvalidEmailFormat},
		{"short phone", func(r *RegisterRequest) { r.Phone = "12345" }, xerrors.ErrInvalidPhoneFormat},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }, xerrors.ErrWeakPassword},
		{"unknown referral", func(r *RegisterRequest) { r.ReferralCode = "OJZZ99" }, xerrors.ErrInvalidReferralCode},
		{"malformed referral", func(r *RegisterRequest) { r.ReferralCode = "nope" }, xerrors.ErrInvalidReferralCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegister()
			tc.mutate(&req)
			_, _, err := f.uc.Register(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	dupEmail := validRegister()
	dupEmail.Phone = "1112223334"
	_, _, err = f.uc.Register(ctx, dupEmail)
	assert.ErrorIs(t, err, xerrors.ErrEmailTaken)

	dupPhone := validRegister()
	dupPhone.Email = "other@example.com"
	_, _, err = f.uc.Register(ctx, dupPhone)
	assert.ErrorIs(t, err, xerrors.ErrPhoneTaken)
}

func TestRegisterWithReferralCreditsReferrer(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	referrer, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	req := RegisterRequest{
		Name:         "Bob",
		Email:        "bob@example.com",
		Phone:        "5556667778",
		Password:     "hunter2hunter2",
		ReferralCode: referrer.ParticipantID,
	}
	referred, _, err := f.uc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrer.ParticipantID, *referred.ReferredBy)

	fresh, err := f.repo.GetByParticipantID(ctx, referrer.ParticipantID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.ReferralCount)
}

// raceRepo fails the first Create with a participant-id conflict, simulating
// a concurrent registration winning the insert race.
type raceRepo struct {
	*repository.MemoryAccountRepository
	failures int
	creates  int
}

func (r *raceRepo) Create(ctx context.Context, account *domain.Account) error {
	r.creates++
	if r.failures > 0 {
		r.failures--
		return xerrors.ErrParticipantIDTaken
	}
	return r.MemoryAccountRepository.Create(ctx, account)
}

func TestRegisterRetriesLostInsertRace(t *testing.T) {
	logger := zap.NewNop()
	repo := &raceRepo{MemoryAccountRepository: repository.NewMemoryAccountRepository(), failures: 1}
	registry := NewIdentityRegistry(repo, "OJ", 4, 10, logger)
	otp := NewOTPService(repo, 6, 10*time.Minute, logger)
	referrals := NewReferralLedger(registry, repo, logger)
	tokens := jwtutil.NewManager([]byte("test-secret"), "registration-service", time.Hour, time.Hour)
	uc := NewAuthUsecase(repo, registry, otp, referrals, &captureMailer{}, tokens, nil, logger)

	account, _, err := uc.Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.creates)
	assert.Regexp(t, `^OJ[0-9A-Z]{4}$`, account.ParticipantID)
}

func TestLoginByEmailAndPhone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	registered, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	byEmail, token, err := f.uc.Login(ctx, "Alice@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, byEmail.ID)
	assert.NotEmpty(t, token)

	byPhone, _, err := f.uc.Login(ctx, "987-654-3210", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, byPhone.ID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	_, _, unknownErr := f.uc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	_, _, wrongPassErr := f.uc.Login(ctx, "alice@example.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, xerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, xerrors.ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongPassErr)
}

func TestAdminLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	token, err := f.uc.AdminLogin(ctx, " Admin@Example.com ", "letmein-admin")
	require.NoError(t, err)

	claims, role, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, jwtutil.RoleAdmin, role)
	assert.Equal(t, "admin@example.com", claims.Subject)

	_, err = f.uc.AdminLogin(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)

	_, err = f.uc.AdminLogin(ctx, "intruder@example.com", "letmein-admin")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	account, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)
	code := f.mailer.last().code

	require.NoError(t, f.uc.VerifyEmail(ctx, account.Email, code))

	fresh, err := f.repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.EmailVerified)

	// The consumed code cannot be replayed.
	assert.ErrorIs(t, f.uc.VerifyEmail(ctx, account.Email, code), xerrors.ErrOTPNotFound)

	assert.ErrorIs(t, f.uc.ResendVerification(ctx, account.Email), xerrors.ErrAlreadyVerified)
}

func TestResendVerificationIssuesFreshCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	account, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	require.NoError(t, f.uc.ResendVerification(ctx, account.Email))
	require.Len(t, f.mailer.sent, 2)
	assert.NoError(t, f.uc.VerifyEmail(ctx, account.Email, f.mailer.last().code))
}

func TestAccountByParticipantID(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	registered, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	// Surrounding whitespace is canonicalized away before lookup.
	found, err := f.uc.AccountByParticipantID(ctx, "  "+registered.ParticipantID+" ")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, found.ID)

	_, err = f.uc.AccountByParticipantID(ctx, "OJ0XX0")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	// Malformed identifiers never reach the store.
	_, err = f.uc.AccountByParticipantID(ctx, "not-an-id")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestResendVerificationUnknownEmailStaysSilent(t *testing.T) {
	f := newAuthFixture(t)

	assert.NoError(t, f.uc.ResendVerification(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.mailer.sent)
}

func TestForgotResetPasswordFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	account, _, err := f.uc.Register(ctx, validRegister())
	require.NoError(t, err)

	code, err := f.uc.ForgotPassword(ctx, account.Email)
	require.NoError(t, err)
	require.NotEmpty(t, code)
	assert.Equal(t, domain.OTPPurposePasswordReset, f.mailer.last().purpose)
	assert.Equal(t, code, f.mailer.last().code)

	require.NoError(t, f.uc.ResetPassword(ctx, account.Email, code, "new-password-1"))

	// Old password is dead, new one works.
	_, _, err = f.uc.Login(ctx, account.Email, "hunter2hunter2")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
	_, _, err = f.uc.Login(ctx, account.Email, "new-password-1")
	assert.NoError(t, err)

	// The reset code is single use.
	assert.ErrorIs(t, f.uc.ResetPassword(ctx, account.Email, code, "new-password-2"), xerrors.ErrOTPNotFound)
}

func TestForgotPasswordUnknownEmailStaysSilent(t *testing.T) {
	f := newAuthFixture(t)

	code, err := f.uc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Empty(t, code)
	assert.Empty(t, f.mailer.sent)
}

func TestResetPasswordUnknownEmailLooksLikeWrongCode(t *testing.T) {
	f := newAuthFixture(t)

	err := f.uc.ResetPassword(context.Background(), "ghost@example.com", "123456", "new-password-1")
	assert.ErrorIs(t, err, xerrors.ErrOTPNotFound)
}
