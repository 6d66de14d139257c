package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FilingStatus is the federal filing status of a return.
type FilingStatus string

const (
	FilingSingle                    FilingStatus = "single"
	FilingMarriedJoint              FilingStatus = "married_joint"
	FilingMarriedSeparate           FilingStatus = "married_separate"
	FilingHeadOfHousehold           FilingStatus = "head_of_household"
	FilingQualifyingSurvivingSpouse FilingStatus = "qualifying_surviving_spouse"
)

// AllFilingStatuses lists every supported status in a stable order.
var AllFilingStatuses = []FilingStatus{
	FilingSingle,
	FilingMarriedJoint,
	FilingMarriedSeparate,
	FilingHeadOfHousehold,
	FilingQualifyingSurvivingSpouse,
}

// Valid reports whether fs is one of the supported statuses.
func (fs FilingStatus) Valid() bool {
	for _, s := range AllFilingStatuses {
		if fs == s {
			return true
		}
	}
	return false
}

// AllowsSpouse reports whether spouse facts may be present on the profile.
func (fs FilingStatus) AllowsSpouse() bool {
	return fs == FilingMarriedJoint || fs == FilingMarriedSeparate
}

// RequiresSpouse reports whether spouse facts must be present.
func (fs FilingStatus) RequiresSpouse() bool {
	return fs == FilingMarriedJoint
}

// Label returns a human readable name.
func (fs FilingStatus) Label() string {
	switch fs {
	case FilingSingle:
		return "Single"
	case FilingMarriedJoint:
		return "Married Filing Jointly"
	case FilingMarriedSeparate:
		return "Married Filing Separately"
	case FilingHeadOfHousehold:
		return "Head of Household"
	case FilingQualifyingSurvivingSpouse:
		return "Qualifying Surviving Spouse"
	default:
		return string(fs)
	}
}

// ParseFilingStatus accepts the canonical names plus the common short forms
// used on the command line (mfj, mfs, hoh, qss).
func ParseFilingStatus(s string) (FilingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "s":
		return FilingSingle, nil
	case "married_joint", "mfj", "joint":
		return FilingMarriedJoint, nil
	case "married_separate", "mfs", "separate":
		return FilingMarriedSeparate, nil
	case "head_of_household", "hoh":
		return FilingHeadOfHousehold, nil
	case "qualifying_surviving_spouse", "qss", "qw":
		return FilingQualifyingSurvivingSpouse, nil
	}
	return "", &InvalidInputError{Field: "filing_status", Value: s, Reason: "unknown filing status"}
}

// StatusAmounts holds one amount per filing status. Qualifying surviving
// spouse falls back to married filing jointly when not set explicitly.
type StatusAmounts map[FilingStatus]decimal.Decimal

// For returns the amount for the given status.
func (sa StatusAmounts) For(fs FilingStatus) (decimal.Decimal, bool) {
	if v, ok := sa[fs]; ok {
		return v, true
	}
	if fs == FilingQualifyingSurvivingSpouse {
		v, ok := sa[FilingMarriedJoint]
		return v, ok
	}
	return decimal.Decimal{}, false
}

// OrZero is For without the presence flag. Missing statuses yield zero.
func (sa StatusAmounts) OrZero(fs FilingStatus) decimal.Decimal {
	v, _ := sa.For(fs)
	return v
}

func (sa StatusAmounts) String() string {
	parts := make([]string, 0, len(sa))
	for _, fs := range AllFilingStatuses {
		if v, ok := sa[fs]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", fs, v.StringFixed(2)))
		}
	}
	return strings.Join(parts, ",")
}
