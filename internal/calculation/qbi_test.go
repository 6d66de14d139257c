package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestQBIDeduction(t *testing.T) {
	fed := federal2025(t)
	qc := NewQBIDeductionCalculator()

	tests := []struct {
		name          string
		business      QBIBusiness
		taxable       string
		expected      string
		incomeLimited bool
	}{
		{
			name:     "below threshold",
			business: QBIBusiness{Income: dec("50000")},
			taxable:  "100000",
			expected: "10000",
		},
		{
			name:          "capped by taxable income",
			business:      QBIBusiness{Income: dec("50000")},
			taxable:       "30000",
			expected:      "6000",
			incomeLimited: true,
		},
		{
			name:     "service business above range",
			business: QBIBusiness{Income: dec("100000"), SSTB: true, W2Wages: dec("80000")},
			taxable:  "300000",
			expected: "0",
		},
		{
			name:     "wage limit above range",
			business: QBIBusiness{Income: dec("100000"), W2Wages: dec("20000")},
			taxable:  "300000",
			expected: "10000",
		},
		{
			name:     "halfway through range",
			business: QBIBusiness{Income: dec("100000")},
			taxable:  "222300",
			expected: "10000",
		},
		{
			name:     "service business halfway through range",
			business: QBIBusiness{Income: dec("100000"), SSTB: true},
			taxable:  "222300",
			expected: "5000",
		},
		{
			name:     "UBIA alternative limit",
			business: QBIBusiness{Income: dec("100000"), W2Wages: dec("10000"), UBIA: dec("400000")},
			taxable:  "400000",
			expected: "12500",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := qc.Calculate([]QBIBusiness{tt.business}, dec(tt.taxable), dec("0"), domain.FilingSingle, fed)
			assertMoney(t, tt.expected, res.Deduction)
			assert.Equal(t, tt.incomeLimited, res.IncomeLimited)
		})
	}
}

func TestQBIDeduction_LossNetsAcrossBusinesses(t *testing.T) {
	fed := federal2025(t)
	res := NewQBIDeductionCalculator().Calculate([]QBIBusiness{
		{Name: "shop", Income: dec("60000")},
		{Name: "shop", Income: dec("-20000")},
	}, dec("150000"), dec("0"), domain.FilingSingle, fed)

	assertMoney(t, "8000", res.Deduction)
	assert.Len(t, res.Components, 2)
	assertMoney(t, "12000", res.Components[0])
	assertMoney(t, "-4000", res.Components[1])
}

func TestQBIDeduction_NetCapitalGainReducesCap(t *testing.T) {
	fed := federal2025(t)
	res := NewQBIDeductionCalculator().Calculate([]QBIBusiness{{Income: dec("50000")}},
		dec("60000"), dec("30000"), domain.FilingSingle, fed)
	assertMoney(t, "6000", res.Deduction)
	assert.True(t, res.IncomeLimited)
}

func TestQBIDeduction_NoBusinesses(t *testing.T) {
	res := NewQBIDeductionCalculator().Calculate(nil, dec("100000"), dec("0"), domain.FilingSingle, federal2025(t))
	assert.True(t, res.Deduction.IsZero())
	assert.Empty(t, res.Components)
}
