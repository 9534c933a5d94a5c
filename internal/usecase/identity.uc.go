package usecase

import (
	"context"
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"registration-service/internal/domain"
	"registration-service/pkg/xerrors"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type identityStore interface {
	ParticipantIDExists(ctx context.Context, participantID string) (bool, error)
	GetByParticipantID(ctx context.Context, participantID string) (*domain.Account, error)
}

// IdentityRegistry issues and validates participant identifiers: a fixed
// prefix followed by random uppercase-alphanumeric characters. The store's
// unique constraint is the real arbiter; the pre-insert existence check only
// keeps collisions cheap.
type IdentityRegistry struct {
	store       identityStore
	prefix      string
	suffixLen   int
	maxAttempts int
	format      *regexp.Regexp
	randSuffix  func(n int) string
	logger      *zap.Logger
}

func NewIdentityRegistry(store identityStore, prefix string, suffixLen, maxAttempts int, logger *zap.Logger) *IdentityRegistry {
	prefix = strings.ToUpper(prefix)
	return &IdentityRegistry{
		store:       store,
		prefix:      prefix,
		suffixLen:   suffixLen,
		maxAttempts: maxAttempts,
		format:      regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `[0-9A-Z]{` + strconv.Itoa(suffixLen) + `}$`),
		randSuffix:  randomBase36,
		logger:      logger,
	}
}

// WithRandomness swaps the suffix source, so tests can force collision
// sequences deterministically.
func (r *IdentityRegistry) WithRandomness(src func(n int) string) *IdentityRegistry {
	r.randSuffix = src
	return r
}

// Generate produces a fresh identifier not present in the store. It gives up
// with ErrExhaustedRetries after the configured attempt budget; the caller's
// registration attempt fails rather than looping forever.
func (r *IdentityRegistry) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		candidate := r.prefix + r.randSuffix(r.suffixLen)
		exists, err := r.store.ParticipantIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		r.logger.Debug("participant id collision, retrying",
			zap.String("candidate", candidate),
			zap.Int("attempt", attempt+1))
	}
	return "", xerrors.ErrExhaustedRetries
}

// Canonicalize uppercases a submitted code; stored identifiers are always
// uppercase and lookups are exact.
func (r *IdentityRegistry) Canonicalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidFormat is the cheap pre-lookup check for submitted referral codes.
func (r *IdentityRegistry) ValidFormat(code string) bool {
	return r.format.MatchString(code)
}

// Exists checks the store for a canonical identifier.
func (r *IdentityRegistry) Exists(ctx context.Context, code string) (bool, error) {
	return r.store.ParticipantIDExists(ctx, code)
}

// Owner returns the account holding a canonical identifier.
func (r *IdentityRegistry) Owner(ctx context.Context, code string) (*domain.Account, error) {
	return r.store.GetByParticipantID(ctx, code)
}

func randomBase36(n int) string {
	out := make([]byte, n)
	for i := range out {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			panic(err)
		}
		out[i] = idAlphabet[num.Int64()]
	}
	return string(out)
}
