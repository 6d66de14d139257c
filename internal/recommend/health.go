package recommend

import (
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	maxHeadroomPenalty = 40
	amtPenalty         = 10
	niitPenalty        = 5
	entityPenalty      = 5
)

// minimumTaxBase keeps the headroom ratio meaningful for small returns.
var minimumTaxBase = decimal.NewFromInt(1000)

// HealthScore grades a position from 0 to 100. Unclaimed savings cost up to
// 40 points (half a point per percent of tax), AMT exposure 10, NIIT 5 and
// an unaddressed entity structure 5.
func HealthScore(pos *domain.TaxPosition, recs []domain.StrategyRecommendation) (int, string) {
	total := decimal.Zero
	entityIssue := false
	for _, r := range recs {
		total = total.Add(r.EstimatedSavings)
		if r.Category == domain.CategoryEntity {
			entityIssue = true
		}
	}

	score := 100
	base := decimal.Max(pos.TotalLiability, minimumTaxBase)
	pct := total.Div(base).Mul(decimal.NewFromInt(100))
	penalty := pct.Div(decimal.NewFromInt(2)).Round(0).IntPart()
	if penalty > maxHeadroomPenalty {
		penalty = maxHeadroomPenalty
	}
	score -= int(penalty)
	if pos.AMT.IsPositive() {
		score -= amtPenalty
	}
	if pos.NIIT.IsPositive() {
		score -= niitPenalty
	}
	if entityIssue {
		score -= entityPenalty
	}
	if score < 0 {
		score = 0
	}
	return score, grade(score)
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}
