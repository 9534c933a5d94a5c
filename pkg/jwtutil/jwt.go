package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"registration-service/pkg/xerrors"
)

// Role is the closed set of session roles carried inside a token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole rejects anything outside the known role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q: %w", s, xerrors.ErrTokenInvalid)
	}
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens with a single shared secret.
// User and admin sessions differ only in role claim and expiry window.
type Manager struct {
	secret   []byte
	issuer   string
	userTTL  time.Duration
	adminTTL time.Duration
}

func NewManager(secret []byte, issuer string, userTTL, adminTTL time.Duration) *Manager {
	return &Manager{
		secret:   secret,
		issuer:   issuer,
		userTTL:  userTTL,
		adminTTL: adminTTL,
	}
}

// IssueUser mints a user session token with the account id as subject.
func (m *Manager) IssueUser(accountID, email string) (string, error) {
	return m.issue(accountID, email, RoleUser, m.userTTL)
}

// IssueAdmin mints an admin session token with the admin email as subject.
func (m *Manager) IssueAdmin(email string) (string, error) {
	return m.issue(email, email, RoleAdmin, m.adminTTL)
}

func (m *Manager) issue(subject, email string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Verify checks signature, issuer and expiry, and returns the typed claims.
// Expiry is reported distinctly from any other defect so callers can map
// both to their own outcomes.
func (m *Manager) Verify(tokenStr string) (*Claims, Role, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithIssuer(m.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", xerrors.ErrTokenExpired
		}
		return nil, "", xerrors.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, "", xerrors.ErrTokenInvalid
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, "", xerrors.ErrTokenInvalid
	}
	return claims, role, nil
}
