package calculation

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTax_SingleWageEarner(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	pos, err := tc.ComputeTax(singleProfile(income(domain.IncomeWages, "95000")), 2025)
	require.NoError(t, err)

	assertMoney(t, "95000", pos.AGI)
	assertMoney(t, "15000", pos.Deduction)
	assert.Equal(t, domain.DeductionStandard, pos.DeductionType)
	assertMoney(t, "80000", pos.TaxableIncome)
	assertMoney(t, "12514", pos.FederalBeforeCredits)
	assertMoney(t, "12514", pos.FederalTotal)
	assertMoney(t, "0", pos.StateTax)
	assertMoney(t, "12514", pos.TotalLiability)
	assert.True(t, dec("0.1317").Equal(pos.EffectiveRate), "effective rate %s", pos.EffectiveRate)
	assert.True(t, dec("0.22").Equal(pos.MarginalRate))
}

func TestComputeTax_LongTermGainsStacked(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	pos, err := tc.ComputeTax(singleProfile(
		income(domain.IncomeWages, "50000"),
		income(domain.IncomeLongTermGain, "20000"),
	), 2025)
	require.NoError(t, err)

	assertMoney(t, "55000", pos.TaxableIncome)
	assertMoney(t, "3961.50", pos.OrdinaryTax)
	assertMoney(t, "997.50", pos.PreferentialTax)
	assertMoney(t, "4959", pos.FederalTotal)
}

func TestComputeTax_CapitalLossLimited(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	p := singleProfile(income(domain.IncomeWages, "60000"), income(domain.IncomeShortTermGain, "1000"))
	p.Adjustments.CapitalLoss = dec("10000")

	pos, err := tc.ComputeTax(p, 2025)
	require.NoError(t, err)
	// 1,000 offsets the gain and 3,000 of the rest offsets wages.
	assertMoney(t, "57000", pos.AGI)
}

func TestComputeTax_TaxableSocialSecurity(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	p := singleProfile(
		income(domain.IncomeSocialSecurity, "30000"),
		income(domain.IncomeRetirementDistribution, "20000"),
	)
	p.Taxpayer.Age = 67
	pos, err := tc.ComputeTax(p, 2025)
	require.NoError(t, err)
	assertMoney(t, "5350", pos.TaxableSocialSecurity)
	assertMoney(t, "25350", pos.AGI)
	assertMoney(t, "50000", pos.TotalIncome)
}

func TestComputeTax_RefundableCreditsProduceRefund(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	p := singleProfile(income(domain.IncomeWages, "20000"))
	p.FilingStatus = domain.FilingHeadOfHousehold
	p.Dependents = []domain.Dependent{{Name: "a", Age: 4}, {Name: "b", Age: 9}}

	pos, err := tc.ComputeTax(p, 2025)
	require.NoError(t, err)
	assertMoney(t, "0", pos.TaxableIncome)
	assertMoney(t, "0", pos.FederalTotal)
	assertMoney(t, "0", pos.TotalLiability)
	assertMoney(t, "9777", pos.Refund)
	actc, ok := pos.Credit("additional_child_tax_credit")
	require.True(t, ok)
	assertMoney(t, "2625", actc.Applied)
	eitc, ok := pos.Credit("earned_income_credit")
	require.True(t, ok)
	assertMoney(t, "7152", eitc.Applied)
	assertMoney(t, "-9777", pos.NetTax())
}

func TestComputeTax_SelfEmployed(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	pos, err := tc.ComputeTax(singleProfile(income(domain.IncomeSelfEmployment, "100000")), 2025)
	require.NoError(t, err)

	assertMoney(t, "14129.55", pos.SETax)
	assertMoney(t, "7064.78", pos.SETaxDeduction)
	assertMoney(t, "92935.22", pos.AGI)
	assert.True(t, pos.QBIDeduction.IsPositive())
	assert.True(t, pos.FederalTotal.GreaterThan(pos.SETax))
}

func TestComputeTax_ValidationErrors(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))

	t.Run("joint without spouse", func(t *testing.T) {
		p := singleProfile(income(domain.IncomeWages, "1000"))
		p.FilingStatus = domain.FilingMarriedJoint
		_, err := tc.ComputeTax(p, 2025)
		var incomplete *domain.IncompleteProfileError
		require.True(t, errors.As(err, &incomplete))
		assert.Equal(t, "spouse", incomplete.Field)
	})

	t.Run("negative income", func(t *testing.T) {
		_, err := tc.ComputeTax(singleProfile(income(domain.IncomeWages, "-5")), 2025)
		var invalid *domain.InvalidInputError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("unknown state", func(t *testing.T) {
		p := singleProfile(income(domain.IncomeWages, "1000"))
		p.State = "ZZ"
		_, err := tc.ComputeTax(p, 2025)
		var unsupported *domain.UnsupportedJurisdictionError
		assert.True(t, errors.As(err, &unsupported))
	})

	t.Run("year before any table", func(t *testing.T) {
		_, err := tc.ComputeTax(singleProfile(income(domain.IncomeWages, "1000")), 1999)
		var unsupported *domain.UnsupportedJurisdictionError
		assert.True(t, errors.As(err, &unsupported))
	})
}

func TestComputeTax_TotalLiabilityMonotonicInWages(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	prev := decimal.Zero
	for wages := int64(0); wages <= 600_000; wages += 12_500 {
		p := singleProfile(income(domain.IncomeWages, decimal.NewFromInt(wages).String()))
		p.State = "CA"
		pos, err := tc.ComputeTax(p, 2025)
		require.NoError(t, err)
		assert.True(t, pos.TotalLiability.GreaterThanOrEqual(prev), "liability fell at %d", wages)
		prev = pos.TotalLiability
	}
}

func TestComputeTax_DoesNotMutateProfile(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	p := jointProfile(income(domain.IncomeWages, "120000"), income(domain.IncomePassThrough, "40000"))
	p.Dependents = []domain.Dependent{{Age: 3}}
	before := p.DeepCopy()

	_, err := tc.ComputeTax(p, 2025)
	require.NoError(t, err)
	assert.Equal(t, before, p)
}

func TestComputeTax_Deterministic(t *testing.T) {
	tc := NewTaxCalculator(testTables(t))
	p := jointProfile(
		income(domain.IncomeWages, "180000"),
		income(domain.IncomeQualifiedDividends, "12000"),
		income(domain.IncomeInterest, "3000"),
	)
	p.State = "NY"
	first, err := tc.ComputeTax(p, 2025)
	require.NoError(t, err)
	second, err := tc.ComputeTax(p, 2025)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
