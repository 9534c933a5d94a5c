package pricing

import (
	"strings"

	"registration-service/config"
)

// Tier is one of the four fixed price points.
type Tier struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// AmountMinor is the amount in the gateway's minor unit.
func (t Tier) AmountMinor() int64 { return t.Amount * 100 }

// Engine maps (institution affiliation, offer flag) to a tier. It is a pure
// decision function over the immutable config it was built with.
type Engine struct {
	instituteDomain string
	offerActive     bool
	currency        string

	instituteOffer int64
	institute      int64
	externalOffer  int64
	external       int64
}

func NewEngine(cfg config.PricingConfig) *Engine {
	return &Engine{
		instituteDomain: strings.ToLower(cfg.InstituteDomain),
		offerActive:     cfg.OfferActive,
		currency:        cfg.Currency,
		instituteOffer:  cfg.InstituteOffer,
		institute:       cfg.Institute,
		externalOffer:   cfg.ExternalOffer,
		external:        cfg.External,
	}
}

// Resolve picks the caller's tier from their email address.
func (e *Engine) Resolve(email string) Tier {
	if e.IsInstituteEmail(email) {
		if e.offerActive {
			return e.tier("institute_offer", "Institute (offer)", e.instituteOffer)
		}
		return e.tier("institute", "Institute", e.institute)
	}
	if e.offerActive {
		return e.tier("external_offer", "External (offer)", e.externalOffer)
	}
	return e.tier("external", "External", e.external)
}

// IsInstituteEmail reports whether the address belongs to the host
// institution's domain, sub-domains included.
func (e *Engine) IsInstituteEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	return domain == e.instituteDomain || strings.HasSuffix(domain, "."+e.instituteDomain)
}

// Tiers lists all four price points, for the unauthenticated pricing view.
func (e *Engine) Tiers() []Tier {
	return []Tier{
		e.tier("institute_offer", "Institute (offer)", e.instituteOffer),
		e.tier("institute", "Institute", e.institute),
		e.tier("external_offer", "External (offer)", e.externalOffer),
		e.tier("external", "External", e.external),
	}
}

func (e *Engine) tier(code, label string, amount int64) Tier {
	return Tier{Code: code, Label: label, Amount: amount, Currency: e.currency}
}
