package calculation

import (
	"testing"

	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testTables(t *testing.T) *config.TableSet {
	t.Helper()
	ts, err := config.LoadBuiltinTables()
	require.NoError(t, err)
	return ts
}

func federal2025(t *testing.T) *domain.TaxYearTable {
	t.Helper()
	fed, err := testTables(t).Federal(2025)
	require.NoError(t, err)
	return fed
}

func income(kind domain.IncomeType, amount string) domain.IncomeItem {
	return domain.IncomeItem{Type: kind, Amount: dec(amount)}
}

func singleProfile(items ...domain.IncomeItem) *domain.TaxpayerProfile {
	return &domain.TaxpayerProfile{
		FilingStatus: domain.FilingSingle,
		State:        "TX",
		Taxpayer:     domain.Person{Age: 40},
		Income:       items,
	}
}

func jointProfile(items ...domain.IncomeItem) *domain.TaxpayerProfile {
	p := singleProfile(items...)
	p.FilingStatus = domain.FilingMarriedJoint
	p.Spouse = &domain.Person{Age: 40}
	return p
}

func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual.StringFixed(2), msgAndArgs)
}
