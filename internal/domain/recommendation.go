package domain

import "github.com/shopspring/decimal"

// StrategyCategory groups recommendations.
type StrategyCategory string

const (
	CategoryRetirement StrategyCategory = "retirement"
	CategoryHealth     StrategyCategory = "health"
	CategoryEntity     StrategyCategory = "entity"
	CategoryCharitable StrategyCategory = "charitable"
	CategoryInvestment StrategyCategory = "investment"
	CategoryBusiness   StrategyCategory = "business"
	CategoryFamily     StrategyCategory = "family"
)

// PriorityTier orders recommendations with equal savings. Lower is more urgent.
type PriorityTier int

const (
	PriorityHigh PriorityTier = iota + 1
	PriorityMedium
	PriorityLow
)

func (p PriorityTier) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// MarshalText lets the tier serialize as its name.
func (p PriorityTier) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// StrategyRecommendation is one actionable savings idea.
type StrategyRecommendation struct {
	ID               string           `json:"id"`
	Label            string           `json:"label"`
	Category         StrategyCategory `json:"category"`
	EstimatedSavings decimal.Decimal  `json:"estimated_savings"`
	Priority         PriorityTier     `json:"priority"`
	Action           string           `json:"action"`
	TriggeringFacts  []string         `json:"triggering_facts"`
}

// RecommendationReport is the ordered output of the recommendation engine.
type RecommendationReport struct {
	Recommendations []StrategyRecommendation `json:"recommendations"`
	TotalSavings    decimal.Decimal          `json:"total_estimated_savings"`
	HealthScore     int                      `json:"health_score"`
	HealthGrade     string                   `json:"health_grade"`
}
