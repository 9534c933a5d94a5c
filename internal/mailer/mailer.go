package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"registration-service/config"
	"registration-service/internal/domain"
	"registration-service/pkg/xerrors"
)

// Mailer is the narrow surface the core needs from the transactional email
// provider. Delivery is best effort; callers can always resend.
type Mailer interface {
	SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error
}

// HTTPMailer posts messages to the provider's transactional API.
type HTTPMailer struct {
	baseURL string
	apiKey  string
	from    string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewHTTPMailer(cfg config.MailerConfig, logger *zap.Logger) *HTTPMailer {
	return &HTTPMailer{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func (m *HTTPMailer) SendOTP(ctx context.Context, to string, purpose domain.OTPPurpose, code string) error {
	subject := "Your verification code"
	if purpose == domain.OTPPurposePasswordReset {
		subject = "Your password reset code"
	}

	payload, err := json.Marshal(map[string]any{
		"from":    m.from,
		"to":      to,
		"subject": subject,
		"text":    fmt.Sprintf("Your one-time code is %s. It expires shortly.", code),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpc.Do(req)
	if err != nil {
		m.logger.Error("mailer request failed", zap.String("to", to), zap.Error(err))
		return xerrors.ErrMailerUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error("mailer rejected message",
			zap.String("to", to),
			zap.Int("status", resp.StatusCode))
		return xerrors.ErrMailerUnavailable
	}
	return nil
}

// LogMailer logs codes instead of sending them. Development only.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(_ context.Context, to string, purpose domain.OTPPurpose, code string) error {
	m.logger.Info("otp (not sent, development mailer)",
		zap.String("to", to),
		zap.String("purpose", string(purpose)),
		zap.String("code", code))
	return nil
}

var _ Mailer = (*HTTPMailer)(nil)
var _ Mailer = (*LogMailer)(nil)
