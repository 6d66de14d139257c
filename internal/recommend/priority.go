package recommend

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// PriorityBands are the savings thresholds for the priority tiers. Savings
// of at least High rank high, at least Medium rank medium, anything less
// ranks low.
type PriorityBands struct {
	High   decimal.Decimal
	Medium decimal.Decimal
}

// DefaultPriorityBands mirrors the configuration defaults.
func DefaultPriorityBands() PriorityBands {
	return PriorityBands{High: decimal.NewFromInt(2000), Medium: decimal.NewFromInt(500)}
}

// BandsFromConfig converts loaded settings into priority bands.
func BandsFromConfig(cfg config.RecommendConfig) PriorityBands {
	return PriorityBands{
		High:   decimal.NewFromFloat(cfg.HighPrioritySavings),
		Medium: decimal.NewFromFloat(cfg.MediumPrioritySavings),
	}
}

// Validate checks that the bands are ordered.
func (b PriorityBands) Validate() error {
	if b.Medium.IsNegative() || b.High.LessThan(b.Medium) {
		return fmt.Errorf("priority bands must satisfy 0 <= medium (%s) <= high (%s)", b.Medium, b.High)
	}
	return nil
}

// Tier combines the savings magnitude with the rule's confidence and returns
// the weaker of the two.
func (b PriorityBands) Tier(savings decimal.Decimal, c Confidence) domain.PriorityTier {
	magnitude := domain.PriorityLow
	switch {
	case savings.GreaterThanOrEqual(b.High):
		magnitude = domain.PriorityHigh
	case savings.GreaterThanOrEqual(b.Medium):
		magnitude = domain.PriorityMedium
	}

	confidence := domain.PriorityLow
	switch c {
	case ConfidenceHigh:
		confidence = domain.PriorityHigh
	case ConfidenceMedium:
		confidence = domain.PriorityMedium
	}

	if confidence > magnitude {
		return confidence
	}
	return magnitude
}
