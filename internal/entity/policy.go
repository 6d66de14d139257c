package entity

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// RiskPolicy grades how defensible an S-Corp salary is. It is an advisory
// heuristic that firms tune to their own comfort, not a rule of law.
type RiskPolicy struct {
	// Salaries below HighRiskRatio of net income are high risk.
	HighRiskRatio decimal.Decimal
	// Salaries at or above LowRiskRatio of net income are low risk.
	LowRiskRatio decimal.Decimal
	// SalaryFloorRatio raises the benchmark salary to at least this share of
	// net income. Zero disables the floor.
	SalaryFloorRatio decimal.Decimal
}

// Classify returns the risk level for a salary to net income ratio.
func (rp RiskPolicy) Classify(ratio decimal.Decimal) domain.RiskLevel {
	switch {
	case ratio.LessThan(rp.HighRiskRatio):
		return domain.RiskHigh
	case ratio.GreaterThanOrEqual(rp.LowRiskRatio):
		return domain.RiskLow
	default:
		return domain.RiskMedium
	}
}

// Validate checks that the bands are ordered and within [0, 1].
func (rp RiskPolicy) Validate() error {
	one := decimal.NewFromInt(1)
	ratios := []struct {
		field string
		value decimal.Decimal
	}{
		{"high_risk_ratio", rp.HighRiskRatio},
		{"low_risk_ratio", rp.LowRiskRatio},
		{"salary_floor_ratio", rp.SalaryFloorRatio},
	}
	for _, r := range ratios {
		if r.value.IsNegative() || r.value.GreaterThan(one) {
			return &domain.InvalidInputError{Field: r.field, Value: r.value, Reason: "must be between 0 and 1"}
		}
	}
	if rp.LowRiskRatio.LessThan(rp.HighRiskRatio) {
		return &domain.InvalidInputError{Field: "low_risk_ratio", Value: rp.LowRiskRatio,
			Reason: fmt.Sprintf("must not be below high_risk_ratio %s", rp.HighRiskRatio)}
	}
	return nil
}

// Options configures the optimizer.
type Options struct {
	Policy                RiskPolicy
	PayrollProcessingCost decimal.Decimal
	ExtraFilingCost       decimal.Decimal
	// Below LowIncomeThreshold of net income the S-Corp is never recommended.
	LowIncomeThreshold decimal.Decimal
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Policy: RiskPolicy{
			HighRiskRatio:    decimal.NewFromFloat(0.30),
			LowRiskRatio:     decimal.NewFromFloat(0.50),
			SalaryFloorRatio: decimal.Zero,
		},
		PayrollProcessingCost: decimal.NewFromInt(1200),
		ExtraFilingCost:       decimal.NewFromInt(1500),
		LowIncomeThreshold:    decimal.NewFromInt(40000),
	}
}

// OptionsFromConfig converts loaded settings into optimizer options.
func OptionsFromConfig(cfg config.EntityConfig) Options {
	return Options{
		Policy: RiskPolicy{
			HighRiskRatio:    decimal.NewFromFloat(cfg.HighRiskRatio),
			LowRiskRatio:     decimal.NewFromFloat(cfg.LowRiskRatio),
			SalaryFloorRatio: decimal.NewFromFloat(cfg.SalaryFloorRatio),
		},
		PayrollProcessingCost: decimal.NewFromFloat(cfg.PayrollProcessingCost),
		ExtraFilingCost:       decimal.NewFromFloat(cfg.ExtraFilingCost),
		LowIncomeThreshold:    decimal.NewFromFloat(cfg.LowIncomeThreshold),
	}
}
