package scenario

import (
	"fmt"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
)

// Mutation is a what-if change to a taxpayer profile. Apply works on a copy
// the caller owns; mutations never see the original profile.
type Mutation interface {
	Apply(p *domain.TaxpayerProfile) error
	// Name returns the registry identifier, e.g. "add_income".
	Name() string
	Description() string
}

// ApplyMutations copies base and applies each mutation in order. The result
// is validated so a mutation cannot produce an inconsistent profile.
func ApplyMutations(base *domain.TaxpayerProfile, mutations []Mutation) (*domain.TaxpayerProfile, error) {
	if base == nil {
		return nil, fmt.Errorf("base profile cannot be nil")
	}
	p := base.DeepCopy()
	for i, m := range mutations {
		if m == nil {
			return nil, fmt.Errorf("mutation at index %d is nil", i)
		}
		if err := m.Apply(p); err != nil {
			return nil, NewMutationError(m.Name(), "apply", err)
		}
	}
	if err := p.Validate(); err != nil {
		name := "profile"
		if len(mutations) > 0 {
			name = mutations[len(mutations)-1].Name()
		}
		return nil, NewMutationError(name, "validate", err)
	}
	return p, nil
}

// MutationError wraps a failure while applying a mutation. The cause is
// usually one of the domain error types.
type MutationError struct {
	Mutation  string
	Operation string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation %s (%s): %v", e.Mutation, e.Operation, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError creates a new MutationError.
func NewMutationError(mutation, operation string, err error) error {
	return &MutationError{Mutation: mutation, Operation: operation, Err: err}
}
