package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"registration-service/internal/domain"
	"registration-service/pkg/xerrors"
)

const accountColumns = `
	id, name, email, phone, password_hash, participant_id, email_verified,
	verify_otp, verify_otp_expiry, reset_otp, reset_otp_expiry,
	referred_by, referral_count,
	is_paid, order_id, payment_id, payment_signature, amount_paid,
	created_at, updated_at`

type postgresAccountRepo struct {
	db *pgxpool.Pool
}

func NewPostgresAccountRepository(db *pgxpool.Pool) AccountRepository {
	return &postgresAccountRepo{db: db}
}

func (r *postgresAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (
			id, name, email, phone, password_hash, participant_id,
			verify_otp, verify_otp_expiry, referred_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.ParticipantID,
		account.VerifyOTP,
		account.VerifyOTPExpiry,
		account.ReferredBy,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		switch {
		case xerrors.IsUniqueViolation(err, "accounts_email_key"):
			return xerrors.ErrEmailTaken
		case xerrors.IsUniqueViolation(err, "accounts_phone_key"):
			return xerrors.ErrPhoneTaken
		case xerrors.IsUniqueViolation(err, "accounts_participant_id_key"):
			return xerrors.ErrParticipantIDTaken
		}
		return err
	}
	return nil
}

func (r *postgresAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *postgresAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *postgresAccountRepo) GetByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return r.getBy(ctx, "phone", phone)
}

func (r *postgresAccountRepo) GetByParticipantID(ctx context.Context, participantID string) (*domain.Account, error) {
	return r.getBy(ctx, "participant_id", participantID)
}

func (r *postgresAccountRepo) getBy(ctx context.Context, column, value string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`

	var a domain.Account
	err := r.db.QueryRow(ctx, query, value).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.ParticipantID, &a.EmailVerified,
		&a.VerifyOTP, &a.VerifyOTPExpiry, &a.ResetOTP, &a.ResetOTPExpiry,
		&a.ReferredBy, &a.ReferralCount,
		&a.IsPaid, &a.OrderID, &a.PaymentID, &a.PaymentSignature, &a.AmountPaid,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresAccountRepo) ParticipantIDExists(ctx context.Context, participantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE participant_id = $1)`,
		participantID,
	).Scan(&exists)
	return exists, err
}

func (r *postgresAccountRepo) SetOTP(ctx context.Context, accountID string, purpose domain.OTPPurpose, code string, expiry time.Time) error {
	query := `UPDATE accounts SET verify_otp = $2, verify_otp_expiry = $3, updated_at = now() WHERE id = $1`
	if purpose == domain.OTPPurposePasswordReset {
		query = `UPDATE accounts SET reset_otp = $2, reset_otp_expiry = $3, updated_at = now() WHERE id = $1`
	}
	return r.exec(ctx, query, accountID, code, expiry)
}

func (r *postgresAccountRepo) ClearOTP(ctx context.Context, accountID string, purpose domain.OTPPurpose) error {
	query := `UPDATE accounts SET verify_otp = NULL, verify_otp_expiry = NULL, updated_at = now() WHERE id = $1`
	if purpose == domain.OTPPurposePasswordReset {
		query = `UPDATE accounts SET reset_otp = NULL, reset_otp_expiry = NULL, updated_at = now() WHERE id = $1`
	}
	return r.exec(ctx, query, accountID)
}

func (r *postgresAccountRepo) MarkEmailVerified(ctx context.Context, accountID string) error {
	return r.exec(ctx,
		`UPDATE accounts SET email_verified = TRUE, updated_at = now() WHERE id = $1`,
		accountID)
}

func (r *postgresAccountRepo) UpdatePassword(ctx context.Context, accountID, passwordHash string) error {
	return r.exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`,
		accountID, passwordHash)
}

func (r *postgresAccountRepo) IncrementReferralCount(ctx context.Context, participantID string) error {
	return r.exec(ctx,
		`UPDATE accounts SET referral_count = referral_count + 1, updated_at = now() WHERE participant_id = $1`,
		participantID)
}

func (r *postgresAccountRepo) SetOrder(ctx context.Context, accountID, orderID string, amountMinor int64) error {
	return r.exec(ctx,
		`UPDATE accounts SET order_id = $2, amount_paid = $3, updated_at = now() WHERE id = $1`,
		accountID, orderID, amountMinor)
}

// MarkPaid flips is_paid exactly once. The is_paid guard keeps the flag
// monotonic even under a racy double callback.
func (r *postgresAccountRepo) MarkPaid(ctx context.Context, accountID, paymentID, signature string) error {
	// Zero affected rows means no such account or already paid; callers
	// check IsPaid before calling, so that is a no-op rather than an error.
	_, err := r.db.Exec(ctx,
		`UPDATE accounts
		 SET is_paid = TRUE, payment_id = $2, payment_signature = $3, updated_at = now()
		 WHERE id = $1 AND is_paid = FALSE`,
		accountID, paymentID, signature)
	return err
}

func (r *postgresAccountRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
