package calculation

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyProgressiveRate(t *testing.T) {
	single := federal2025(t).Brackets[domain.FilingSingle]

	tests := []struct {
		name     string
		income   string
		expected string
	}{
		{"zero", "0", "0"},
		{"inside first bracket", "10000", "1000.00"},
		{"first boundary", "11925", "1192.50"},
		{"one cent over first boundary", "11925.01", "1192.50"},
		{"second boundary", "48475", "5578.50"},
		{"80k taxable", "80000", "12514.00"},
		{"top bracket start", "626350", "188769.75"},
		{"top bracket", "1000000", "327020.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyProgressiveRate(dec(tt.income), single)
			require.NoError(t, err)
			assertMoney(t, tt.expected, got)
		})
	}
}

func TestApplyProgressiveRate_NegativeIncome(t *testing.T) {
	_, err := ApplyProgressiveRate(dec("-1"), federal2025(t).Brackets[domain.FilingSingle])
	var invalid *domain.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "taxable_income", invalid.Field)
}

func TestApplyProgressiveRate_Monotonic(t *testing.T) {
	fed := federal2025(t)
	for _, fs := range []domain.FilingStatus{domain.FilingSingle, domain.FilingMarriedJoint, domain.FilingHeadOfHousehold, domain.FilingMarriedSeparate} {
		schedule, ok := fed.ScheduleFor(fs)
		require.True(t, ok)
		prev := decimal.Zero
		for income := int64(0); income <= 1_000_000; income += 7_500 {
			tax, err := ApplyProgressiveRate(decimal.NewFromInt(income), schedule)
			require.NoError(t, err)
			assert.True(t, tax.GreaterThanOrEqual(prev), "%s: tax decreased at %d", fs, income)
			prev = tax
		}
	}
}

func TestMarginalRate(t *testing.T) {
	single := federal2025(t).Brackets[domain.FilingSingle]

	tests := []struct {
		income   string
		expected string
	}{
		{"0", "0"},
		{"1", "0.10"},
		{"11925", "0.10"},
		{"11925.01", "0.12"},
		{"48475", "0.12"},
		{"80000", "0.22"},
		{"700000", "0.37"},
	}
	for _, tt := range tests {
		t.Run(tt.income, func(t *testing.T) {
			assert.True(t, dec(tt.expected).Equal(MarginalRate(dec(tt.income), single)))
		})
	}
}

func TestBracketHeadroom(t *testing.T) {
	single := federal2025(t).Brackets[domain.FilingSingle]
	assertMoney(t, "23350", BracketHeadroom(dec("80000"), single))
	assertMoney(t, "0", BracketHeadroom(dec("900000"), single))
}

func TestStackedTax(t *testing.T) {
	cg := federal2025(t).CapitalGains[domain.FilingSingle]
	// 35,000 of ordinary income leaves 13,350 of room at 0%.
	got := stackedTax(dec("35000"), dec("20000"), cg)
	assertMoney(t, "997.50", got)
	assert.True(t, stackedTax(dec("35000"), decimal.Zero, cg).IsZero())
}
