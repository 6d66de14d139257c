package domain

import "fmt"

// InvalidInputError reports a malformed or out-of-range single value.
type InvalidInputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// IncompleteProfileError reports a fact that the chosen filing status or
// jurisdiction requires but the profile does not carry.
type IncompleteProfileError struct {
	Field        string
	FilingStatus FilingStatus
}

func (e *IncompleteProfileError) Error() string {
	if e.FilingStatus != "" {
		return fmt.Sprintf("incomplete profile: %s is required for filing status %s", e.Field, e.FilingStatus)
	}
	return fmt.Sprintf("incomplete profile: %s is required", e.Field)
}

// UnsupportedJurisdictionError reports a missing table for a state or year.
type UnsupportedJurisdictionError struct {
	Jurisdiction string
	TaxYear      int
}

func (e *UnsupportedJurisdictionError) Error() string {
	return fmt.Sprintf("unsupported jurisdiction: no tax table for %s in %d", e.Jurisdiction, e.TaxYear)
}

// ComputationLimitError reports an input beyond the bounds the engine accepts.
type ComputationLimitError struct {
	Field string
	Value any
	Limit any
}

func (e *ComputationLimitError) Error() string {
	return fmt.Sprintf("computation limit exceeded: %s=%v (limit %v)", e.Field, e.Value, e.Limit)
}
