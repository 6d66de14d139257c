package scenario

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	tables, err := config.LoadBuiltinTables()
	require.NoError(t, err)
	return NewAnalyzer(calculation.NewTaxCalculator(tables))
}

func single95k() *domain.TaxpayerProfile {
	return &domain.TaxpayerProfile{
		FilingStatus: domain.FilingSingle,
		State:        "TX",
		Taxpayer:     domain.Person{Age: 40},
		Income:       []domain.IncomeItem{{Type: domain.IncomeWages, Amount: dec("95000")}},
	}
}

func TestAnalyzeSpecs(t *testing.T) {
	a := newAnalyzer(t)

	tests := []struct {
		spec  string
		delta string
	}{
		{"none", "0"},
		{"scale_income:factor=1", "0"},
		{"set_retirement_contribution:amount=5000", "-1100"},
		{"set_retirement_contribution:account=ira,amount=7000", "-1540"},
		{"set_hsa:amount=4300", "-946"},
		{"add_income:type=w2_wages,amount=10000", "2200"},
		{"add_charitable:amount=20000", "-1100"},
		{"add_dependent:age=5", "-2000"},
		{"set_filing_status:status=married_joint,spouse_age=38", "-5191"},
		{"scale_income:factor=0.5,type=w2_wages", "-8852.5"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			res, err := a.AnalyzeSpecs(single95k(), 2025, []string{tt.spec})
			require.NoError(t, err)
			assert.True(t, dec(tt.delta).Equal(res.NetTaxDelta), "delta %s", res.NetTaxDelta)
			assert.True(t, dec("12514").Equal(res.Baseline.TotalLiability))
			assert.True(t, res.Detail.TotalLiability.Equal(res.NetTaxDelta))
		})
	}
}

func TestAnalyze_IdentityAcrossProfiles(t *testing.T) {
	a := newAnalyzer(t)
	profiles := []*domain.TaxpayerProfile{
		single95k(),
		{
			FilingStatus: domain.FilingMarriedJoint,
			State:        "CA",
			Taxpayer:     domain.Person{Age: 66},
			Spouse:       &domain.Person{Age: 64, Blind: true},
			Dependents:   []domain.Dependent{{Age: 15}},
			Income: []domain.IncomeItem{
				{Type: domain.IncomeSelfEmployment, Amount: dec("85000"), Business: &domain.BusinessDetails{Name: "Shop"}},
				{Type: domain.IncomeSocialSecurity, Amount: dec("24000")},
				{Type: domain.IncomeQualifiedDividends, Amount: dec("12000")},
			},
			Itemized: domain.ItemizedComponents{StateLocalTaxes: dec("14000"), MortgageInterest: dec("16000")},
		},
	}
	for _, p := range profiles {
		res, err := a.Analyze(p, 2025, Identity{})
		require.NoError(t, err)
		assert.True(t, res.NetTaxDelta.IsZero(), "identity delta %s", res.NetTaxDelta)
		assert.True(t, res.Detail.TotalLiability.IsZero())
		assert.Equal(t, "No change", res.Name)
	}
}

func TestAnalyze_StateMove(t *testing.T) {
	a := newAnalyzer(t)
	res, err := a.AnalyzeSpecs(single95k(), 2025, []string{"set_state:state=ca"})
	require.NoError(t, err)
	assert.True(t, res.Baseline.StateTax.IsZero())
	assert.True(t, res.Modified.StateTax.IsPositive())
	assert.True(t, res.NetTaxDelta.Equal(res.Modified.StateTax))
	assert.Equal(t, "Move to CA", res.Name)
}

func TestAnalyze_ComposesInOrder(t *testing.T) {
	a := newAnalyzer(t)
	res, err := a.AnalyzeSpecs(single95k(), 2025, []string{
		"set_retirement_contribution:amount=5000",
		"set_hsa:amount=4300",
	})
	require.NoError(t, err)
	assert.True(t, dec("-2046").Equal(res.NetTaxDelta), "delta %s", res.NetTaxDelta)
	assert.Contains(t, res.Name, "; ")
}

func TestAnalyzeEach(t *testing.T) {
	a := newAnalyzer(t)
	p := single95k()
	mutations, err := a.Registry.ParseSpecs([]string{"set_hsa:amount=4300", "add_dependent:age=3,count=2"})
	require.NoError(t, err)

	results, err := a.AnalyzeEach(p, 2025, mutations)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Same(t, results[0].Baseline, results[1].Baseline)
	assert.True(t, dec("-946").Equal(results[0].NetTaxDelta))
	assert.True(t, dec("-4000").Equal(results[1].NetTaxDelta))
	assert.Empty(t, p.Dependents)
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	a := newAnalyzer(t)
	p := single95k()
	_, err := a.AnalyzeSpecs(p, 2025, []string{"scale_income:factor=2", "set_state:state=NY", "set_filing_status:status=married_joint"})
	require.NoError(t, err)
	assert.Equal(t, domain.FilingSingle, p.FilingStatus)
	assert.Equal(t, "TX", p.State)
	assert.Nil(t, p.Spouse)
	assert.True(t, dec("95000").Equal(p.Income[0].Amount))
}

func TestAnalyze_Errors(t *testing.T) {
	a := newAnalyzer(t)

	_, err := a.AnalyzeSpecs(single95k(), 2025, []string{"set_filing_status:status=head_of_household"})
	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.Equal(t, "validate", mutErr.Operation)
	var incomplete *domain.IncompleteProfileError
	assert.True(t, errors.As(err, &incomplete))

	_, err = a.AnalyzeSpecs(single95k(), 2025, []string{"set_state:state=ZZ"})
	var unsupported *domain.UnsupportedJurisdictionError
	assert.True(t, errors.As(err, &unsupported))

	_, err = a.Analyze(&domain.TaxpayerProfile{FilingStatus: domain.FilingSingle}, 2025, Identity{})
	assert.True(t, errors.As(err, &incomplete))
}

func TestRegistry_ParseSpec(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		spec    string
		wantErr bool
		invalid bool
	}{
		{"bare name", "none", false, false},
		{"with params", "add_income:type=interest,amount=500,owner=taxpayer", false, false},
		{"spaces", " set_hsa : amount = 1000 ", false, false},
		{"unknown mutation", "win_lottery:amount=1", true, false},
		{"bad pair", "set_hsa:amount", true, false},
		{"missing param", "set_hsa:", true, false},
		{"bad amount", "set_hsa:amount=lots", true, false},
		{"negative amount", "add_charitable:amount=-5", true, true},
		{"bad income type", "add_income:type=crypto,amount=5", true, true},
		{"bad owner", "add_income:type=interest,amount=5,owner=cat", true, true},
		{"bad account", "set_retirement_contribution:amount=5,account=roth", true, true},
		{"bad status", "set_filing_status:status=complicated", true, true},
		{"bad count", "add_dependent:age=3,count=0", true, true},
		{"negative factor", "scale_income:factor=-1", true, true},
		{"empty", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := r.ParseSpec(tt.spec)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotNil(t, m)
				return
			}
			require.Error(t, err)
			if tt.invalid {
				var invalid *domain.InvalidInputError
				assert.True(t, errors.As(err, &invalid), "got %T", err)
			}
		})
	}

	assert.Equal(t, []string{
		"add_charitable", "add_dependent", "add_income", "none", "scale_income",
		"set_filing_status", "set_hsa", "set_retirement_contribution", "set_state",
	}, r.List())
}

func TestApplyMutations_NilMutation(t *testing.T) {
	_, err := ApplyMutations(single95k(), []Mutation{nil})
	assert.Error(t, err)
	_, err = ApplyMutations(nil, nil)
	assert.Error(t, err)
}
