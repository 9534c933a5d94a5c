package domain

import "time"

// PaymentStatus tracks an account through the one-way payment flow.
// Paid is terminal; nothing in this service moves an account back.
type PaymentStatus string

const (
	PaymentUnpaid       PaymentStatus = "unpaid"
	PaymentOrderPending PaymentStatus = "order_pending"
	PaymentPaid         PaymentStatus = "paid"
)

// OTPPurpose selects which of the two independent code slots on an account
// an operation touches. A pending reset code never satisfies an email
// verification check, and vice versa.
type OTPPurpose string

const (
	OTPPurposeVerifyEmail   OTPPurpose = "verify_email"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

type Account struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	PasswordHash  string     `json:"-"`
	ParticipantID string     `json:"participantId"`
	EmailVerified bool       `json:"emailVerified"`

	VerifyOTP       *string    `json:"-"`
	VerifyOTPExpiry *time.Time `json:"-"`
	ResetOTP        *string    `json:"-"`
	ResetOTPExpiry  *time.Time `json:"-"`

	ReferredBy    *string `json:"referredBy,omitempty"`
	ReferralCount int     `json:"referralCount"`

	IsPaid           bool    `json:"isPaid"`
	OrderID          *string `json:"orderId,omitempty"`
	PaymentID        *string `json:"paymentId,omitempty"`
	PaymentSignature *string `json:"-"`
	AmountPaid       *int64  `json:"amountPaid,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReferralCode is the account's participant identifier in its role as a
// code other registrants can claim.
func (a *Account) ReferralCode() string { return a.ParticipantID }

func (a *Account) PaymentStatus() PaymentStatus {
	switch {
	case a.IsPaid:
		return PaymentPaid
	case a.OrderID != nil:
		return PaymentOrderPending
	default:
		return PaymentUnpaid
	}
}

// OTP returns the code and expiry pair for the given purpose.
func (a *Account) OTP(purpose OTPPurpose) (*string, *time.Time) {
	if purpose == OTPPurposePasswordReset {
		return a.ResetOTP, a.ResetOTPExpiry
	}
	return a.VerifyOTP, a.VerifyOTPExpiry
}
