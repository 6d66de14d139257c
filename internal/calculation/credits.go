package calculation

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// CreditInput carries the return figures credits depend on.
type CreditInput struct {
	AGI              decimal.Decimal
	Liability        decimal.Decimal
	EarnedIncome     decimal.Decimal
	InvestmentIncome decimal.Decimal
	// LowerEarnedIncome is the smaller of the two spouses' earned income on
	// a joint return, or the taxpayer's earned income otherwise.
	LowerEarnedIncome decimal.Decimal
}

// CreditResult is the outcome of applying every credit in order.
type CreditResult struct {
	Lines         []domain.CreditApplied
	Nonrefundable decimal.Decimal
	Refundable    decimal.Decimal
	// Remaining is the liability left after non-refundable credits.
	Remaining decimal.Decimal
}

// CreditEngine applies the credits of a tax year in the table's pinned
// order. Non-refundable credits are capped at the remaining liability;
// refundable credits are reported in full.
type CreditEngine struct{}

// NewCreditEngine creates a credit engine
func NewCreditEngine() *CreditEngine {
	return &CreditEngine{}
}

// Apply computes and applies every credit. The order comes from the table
// and is not re-sorted here.
func (ce *CreditEngine) Apply(p *domain.TaxpayerProfile, in CreditInput, t *domain.TaxYearTable) (CreditResult, error) {
	res := CreditResult{Remaining: decimal.Max(in.Liability, decimal.Zero)}
	groupReduction := make(map[string]decimal.Decimal)
	computed := make(map[string]decimal.Decimal)
	applied := make(map[string]decimal.Decimal)

	for _, id := range t.CreditOrder {
		rule, ok := t.Credits[id]
		if !ok {
			return CreditResult{}, fmt.Errorf("credit %q is not defined for %d", id, t.Metadata.TaxYear)
		}
		if !rule.EligibleFor(p.FilingStatus) {
			continue
		}

		var amount decimal.Decimal
		switch rule.Kind {
		case domain.CreditPerChild:
			amount = rule.PerUnit.Mul(decimal.NewFromInt(int64(p.CountDependents(rule.MaxAge, true))))
		case domain.CreditPerOtherDependent:
			amount = rule.PerUnit.Mul(decimal.NewFromInt(int64(p.CountDependents(rule.MaxAge, false))))
		case domain.CreditRefundableRemainder:
			unused := computed[rule.RemainderOf].Sub(applied[rule.RemainderOf])
			amount = ce.refundableRemainder(p, rule, unused, in.EarnedIncome)
		case domain.CreditDependentCare:
			amount = ce.dependentCare(p, rule, in)
		case domain.CreditEarnedIncome:
			amount = ce.earnedIncome(p, rule, in)
		default:
			return CreditResult{}, fmt.Errorf("credit %q has unknown kind %q", id, rule.Kind)
		}
		if !rule.Maximum.IsZero() {
			amount = decimal.Min(amount, rule.Maximum)
		}

		if rule.PhaseOut.Rate.IsPositive() && amount.IsPositive() {
			key := rule.PhaseOutGroup
			if key == "" {
				key = id
			}
			reduction, seen := groupReduction[key]
			if !seen {
				reduction = phaseOutReduction(in.AGI, p.FilingStatus, rule.PhaseOut)
			}
			used := decimal.Min(reduction, amount)
			amount = amount.Sub(used)
			groupReduction[key] = reduction.Sub(used)
		}
		amount = decimal.Max(amount, decimal.Zero).Round(2)
		computed[id] = amount

		line := domain.CreditApplied{ID: id, Label: rule.Label, Refundable: rule.Refundable, Computed: amount}
		if rule.Refundable {
			line.Applied = amount
			res.Refundable = res.Refundable.Add(amount)
		} else {
			line.Applied = decimal.Min(amount, res.Remaining)
			res.Remaining = res.Remaining.Sub(line.Applied)
			res.Nonrefundable = res.Nonrefundable.Add(line.Applied)
		}
		applied[id] = line.Applied
		if amount.IsPositive() {
			res.Lines = append(res.Lines, line)
		}
	}
	return res, nil
}

// phaseOutReduction rounds the excess AGI up to the step ("or fraction
// thereof") and multiplies by the rate.
func phaseOutReduction(agi decimal.Decimal, fs domain.FilingStatus, po domain.PhaseOut) decimal.Decimal {
	start, ok := po.Start.For(fs)
	if !ok {
		return decimal.Zero
	}
	excess := agi.Sub(start)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	if po.Step.IsPositive() {
		excess = excess.Div(po.Step).Ceil().Mul(po.Step)
	}
	return excess.Mul(po.Rate)
}

func (ce *CreditEngine) refundableRemainder(p *domain.TaxpayerProfile, rule domain.CreditRule, unused, earned decimal.Decimal) decimal.Decimal {
	if !unused.IsPositive() {
		return decimal.Zero
	}
	units := decimal.NewFromInt(int64(p.CountDependents(rule.MaxAge, true)))
	amount := decimal.Min(unused, rule.RefundableCapPerUnit.Mul(units))
	earnedPart := decimal.Max(decimal.Zero, earned.Sub(rule.EarnedIncomeFloor)).Mul(rule.EarnedIncomeRate)
	return decimal.Min(amount, earnedPart)
}

func (ce *CreditEngine) dependentCare(p *domain.TaxpayerProfile, rule domain.CreditRule, in CreditInput) decimal.Decimal {
	qualifying := 0
	for _, d := range p.Dependents {
		if d.Age < rule.MaxAge || d.Disabled {
			qualifying++
		}
	}
	if qualifying == 0 || len(rule.ExpenseLimits) == 0 || !p.DependentCareExpenses.IsPositive() {
		return decimal.Zero
	}
	idx := qualifying - 1
	if idx >= len(rule.ExpenseLimits) {
		idx = len(rule.ExpenseLimits) - 1
	}
	expenses := decimal.Min(p.DependentCareExpenses, rule.ExpenseLimits[idx])
	expenses = decimal.Min(expenses, decimal.Max(in.LowerEarnedIncome, decimal.Zero))

	rate := rule.MaxRate
	over := in.AGI.Sub(rule.RateStepStart)
	if over.IsPositive() && rule.RateStepSize.IsPositive() {
		steps := over.Div(rule.RateStepSize).Ceil()
		rate = decimal.Max(rule.MinRate, rate.Sub(steps.Mul(rule.RateStepDrop)))
	}
	return expenses.Mul(rate)
}

func (ce *CreditEngine) earnedIncome(p *domain.TaxpayerProfile, rule domain.CreditRule, in CreditInput) decimal.Decimal {
	if len(rule.Schedule) == 0 || !in.EarnedIncome.IsPositive() {
		return decimal.Zero
	}
	if in.InvestmentIncome.GreaterThan(rule.InvestmentIncomeLimit) {
		return decimal.Zero
	}
	children := p.CountDependents(rule.MaxAge, true)
	if children >= len(rule.Schedule) {
		children = len(rule.Schedule) - 1
	}
	tier := rule.Schedule[children]

	credit := decimal.Min(in.EarnedIncome.Mul(tier.PhaseInRate), tier.MaxCredit)
	start, ok := tier.PhaseOutStart.For(p.FilingStatus)
	if !ok {
		return decimal.Zero
	}
	income := decimal.Max(in.EarnedIncome, in.AGI)
	if over := income.Sub(start); over.IsPositive() {
		credit = credit.Sub(over.Mul(tier.PhaseOutRate))
	}
	return decimal.Max(credit, decimal.Zero)
}
