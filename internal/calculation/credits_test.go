package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creditLine(res CreditResult, id string) (domain.CreditApplied, bool) {
	for _, l := range res.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return domain.CreditApplied{}, false
}

func TestCreditEngine_ChildTaxCreditPhaseOut(t *testing.T) {
	fed := federal2025(t)
	ce := NewCreditEngine()

	p := jointProfile()
	p.Dependents = []domain.Dependent{{Name: "kid", Age: 10}}

	tests := []struct {
		agi      string
		expected string
	}{
		{"400000", "2000"},
		{"400001", "1950"},
		{"401000", "1950"},
		{"420000", "1000"},
		{"440000", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.agi, func(t *testing.T) {
			res, err := ce.Apply(p, CreditInput{AGI: dec(tt.agi), Liability: dec("100000"), EarnedIncome: dec(tt.agi)}, fed)
			require.NoError(t, err)
			line, ok := creditLine(res, "child_tax_credit")
			if tt.expected == "0" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assertMoney(t, tt.expected, line.Applied)
		})
	}
}

func TestCreditEngine_SharedPhaseOut(t *testing.T) {
	fed := federal2025(t)
	ce := NewCreditEngine()

	p := jointProfile()
	p.Dependents = []domain.Dependent{{Age: 10}, {Age: 20, Relationship: "student"}}

	res, err := ce.Apply(p, CreditInput{AGI: dec("440000"), Liability: dec("100000")}, fed)
	require.NoError(t, err)
	_, ok := creditLine(res, "child_tax_credit")
	assert.False(t, ok)
	odc, ok := creditLine(res, "other_dependent_credit")
	require.True(t, ok)
	assertMoney(t, "500", odc.Applied)

	res, err = ce.Apply(p, CreditInput{AGI: dec("445000"), Liability: dec("100000")}, fed)
	require.NoError(t, err)
	odc, ok = creditLine(res, "other_dependent_credit")
	require.True(t, ok)
	assertMoney(t, "250", odc.Applied)
}

func TestCreditEngine_NonrefundableCappedAndRemainderRefunded(t *testing.T) {
	fed := federal2025(t)
	p := singleProfile()
	p.FilingStatus = domain.FilingHeadOfHousehold
	p.Dependents = []domain.Dependent{{Age: 5}}

	res, err := NewCreditEngine().Apply(p, CreditInput{
		AGI:               dec("30000"),
		Liability:         dec("500"),
		EarnedIncome:      dec("30000"),
		LowerEarnedIncome: dec("30000"),
	}, fed)
	require.NoError(t, err)

	ctc, ok := creditLine(res, "child_tax_credit")
	require.True(t, ok)
	assertMoney(t, "2000", ctc.Computed)
	assertMoney(t, "500", ctc.Applied)
	assertMoney(t, "0", res.Remaining)

	actc, ok := creditLine(res, "additional_child_tax_credit")
	require.True(t, ok)
	assertMoney(t, "1500", actc.Applied)
	assert.True(t, actc.Refundable)
}

func TestCreditEngine_EarnedIncomeCredit(t *testing.T) {
	fed := federal2025(t)
	ce := NewCreditEngine()

	hoh := singleProfile()
	hoh.FilingStatus = domain.FilingHeadOfHousehold
	hoh.Dependents = []domain.Dependent{{Age: 4}, {Age: 7}}

	tests := []struct {
		name       string
		earned     string
		investment string
		expected   string
	}{
		{"plateau", "20000", "0", "7152"},
		{"phasing out", "30000", "0", "5751.51"},
		{"investment income too high", "20000", "12000", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ce.Apply(hoh, CreditInput{
				AGI:              dec(tt.earned),
				EarnedIncome:     dec(tt.earned),
				InvestmentIncome: dec(tt.investment),
			}, fed)
			require.NoError(t, err)
			line, ok := creditLine(res, "earned_income_credit")
			if tt.expected == "0" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assertMoney(t, tt.expected, line.Applied)
		})
	}

	t.Run("separate filers are ineligible", func(t *testing.T) {
		mfs := hoh.DeepCopy()
		mfs.FilingStatus = domain.FilingMarriedSeparate
		res, err := ce.Apply(mfs, CreditInput{AGI: dec("20000"), EarnedIncome: dec("20000")}, fed)
		require.NoError(t, err)
		_, ok := creditLine(res, "earned_income_credit")
		assert.False(t, ok)
	})
}

func TestCreditEngine_DependentCare(t *testing.T) {
	fed := federal2025(t)
	ce := NewCreditEngine()

	p := singleProfile()
	p.FilingStatus = domain.FilingHeadOfHousehold
	p.Dependents = []domain.Dependent{{Age: 6}}
	p.DependentCareExpenses = dec("5000")

	tests := []struct {
		agi      string
		expected string
	}{
		{"50000", "600"},
		{"20000", "960"},
		{"15000", "1050"},
	}
	for _, tt := range tests {
		t.Run(tt.agi, func(t *testing.T) {
			res, err := ce.Apply(p, CreditInput{
				AGI:               dec(tt.agi),
				Liability:         dec("10000"),
				EarnedIncome:      dec(tt.agi),
				LowerEarnedIncome: dec(tt.agi),
			}, fed)
			require.NoError(t, err)
			line, ok := creditLine(res, "dependent_care_credit")
			require.True(t, ok)
			assertMoney(t, tt.expected, line.Computed)
		})
	}

	t.Run("limited by lower earner", func(t *testing.T) {
		res, err := ce.Apply(p, CreditInput{AGI: dec("50000"), Liability: dec("10000"), LowerEarnedIncome: dec("1000")}, fed)
		require.NoError(t, err)
		line, ok := creditLine(res, "dependent_care_credit")
		require.True(t, ok)
		assertMoney(t, "200", line.Computed)
	})
}

func TestCreditEngine_UnknownCredit(t *testing.T) {
	fed := *federal2025(t)
	fed.CreditOrder = append([]string{"made_up"}, fed.CreditOrder...)
	_, err := NewCreditEngine().Apply(singleProfile(), CreditInput{}, &fed)
	assert.Error(t, err)
}
