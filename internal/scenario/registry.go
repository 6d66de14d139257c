package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// MutationFactory creates a mutation from string parameters.
type MutationFactory func(params map[string]string) (Mutation, error)

// Registry maps mutation names to factories so mutations can be built from
// CLI flags and request bodies.
type Registry struct {
	factories map[string]MutationFactory
}

// NewRegistry creates a registry with all built-in mutations registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]MutationFactory)}

	r.Register("none", func(map[string]string) (Mutation, error) { return Identity{}, nil })
	r.Register("set_filing_status", createSetFilingStatus)
	r.Register("add_income", createAddIncome)
	r.Register("set_retirement_contribution", createSetRetirementContribution)
	r.Register("set_hsa", createSetHSA)
	r.Register("add_dependent", createAddDependent)
	r.Register("set_state", createSetState)
	r.Register("add_charitable", createAddCharitable)
	r.Register("scale_income", createScaleIncome)

	return r
}

// Register adds a mutation factory to the registry.
func (r *Registry) Register(name string, factory MutationFactory) {
	r.factories[name] = factory
}

// Create builds a mutation by name.
func (r *Registry) Create(name string, params map[string]string) (Mutation, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown mutation: %s", name)
	}
	return factory(params)
}

// List returns the registered mutation names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseSpec parses a mutation specification.
// Format: "name:param1=value1,param2=value2"; "name" alone has no parameters.
// Example: "add_income:type=w2_wages,amount=10000"
func (r *Registry) ParseSpec(spec string) (Mutation, error) {
	name, paramsStr, _ := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	paramsStr = strings.TrimSpace(paramsStr)
	if name == "" {
		return nil, fmt.Errorf("invalid mutation spec, expected 'name:params', got: %q", spec)
	}

	params := make(map[string]string)
	if paramsStr != "" {
		for _, pair := range strings.Split(paramsStr, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", pair)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return r.Create(name, params)
}

// ParseSpecs parses several specs in order.
func (r *Registry) ParseSpecs(specs []string) ([]Mutation, error) {
	out := make([]Mutation, 0, len(specs))
	for _, s := range specs {
		m, err := r.ParseSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func required(params map[string]string, mutation, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%s requires '%s' parameter", mutation, key)
	}
	return v, nil
}

func amountParam(params map[string]string, mutation string) (decimal.Decimal, error) {
	s, err := required(params, mutation, "amount")
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount value: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, &domain.InvalidInputError{Field: "amount", Value: d, Reason: "must be non-negative"}
	}
	return d, nil
}

func createSetFilingStatus(params map[string]string) (Mutation, error) {
	s, err := required(params, "set_filing_status", "status")
	if err != nil {
		return nil, err
	}
	fs, err := domain.ParseFilingStatus(s)
	if err != nil {
		return nil, err
	}
	m := &SetFilingStatus{Status: fs}
	if a, ok := params["spouse_age"]; ok {
		age, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid spouse_age value: %w", err)
		}
		m.SpouseAge = age
	}
	return m, nil
}

func createAddIncome(params map[string]string) (Mutation, error) {
	t, err := required(params, "add_income", "type")
	if err != nil {
		return nil, err
	}
	kind := domain.IncomeType(t)
	if !kind.Valid() {
		return nil, &domain.InvalidInputError{Field: "type", Value: t, Reason: "unknown income type"}
	}
	amount, err := amountParam(params, "add_income")
	if err != nil {
		return nil, err
	}
	owner := domain.Owner(params["owner"])
	if owner != "" && owner != domain.OwnerTaxpayer && owner != domain.OwnerSpouse {
		return nil, &domain.InvalidInputError{Field: "owner", Value: owner, Reason: "must be taxpayer or spouse"}
	}
	return &AddIncome{Type: kind, Amount: amount, Owner: owner}, nil
}

func createSetRetirementContribution(params map[string]string) (Mutation, error) {
	amount, err := amountParam(params, "set_retirement_contribution")
	if err != nil {
		return nil, err
	}
	account := RetirementAccount(params["account"])
	switch account {
	case "":
		account = Account401k
	case Account401k, AccountIRA, AccountSelfEmployed:
	default:
		return nil, &domain.InvalidInputError{Field: "account", Value: account, Reason: "must be 401k, ira or self_employed"}
	}
	return &SetRetirementContribution{Account: account, Amount: amount}, nil
}

func createSetHSA(params map[string]string) (Mutation, error) {
	amount, err := amountParam(params, "set_hsa")
	if err != nil {
		return nil, err
	}
	return &SetHSA{Amount: amount}, nil
}

func createAddDependent(params map[string]string) (Mutation, error) {
	a, err := required(params, "add_dependent", "age")
	if err != nil {
		return nil, err
	}
	age, err := strconv.Atoi(a)
	if err != nil {
		return nil, fmt.Errorf("invalid age value: %w", err)
	}
	m := &AddDependent{Age: age, Count: 1, Label: params["name"]}
	if c, ok := params["count"]; ok {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			return nil, &domain.InvalidInputError{Field: "count", Value: c, Reason: "must be a positive integer"}
		}
		m.Count = n
	}
	return m, nil
}

func createSetState(params map[string]string) (Mutation, error) {
	s, err := required(params, "set_state", "state")
	if err != nil {
		return nil, err
	}
	return &SetState{State: s}, nil
}

func createAddCharitable(params map[string]string) (Mutation, error) {
	amount, err := amountParam(params, "add_charitable")
	if err != nil {
		return nil, err
	}
	return &AddCharitable{Amount: amount}, nil
}

func createScaleIncome(params map[string]string) (Mutation, error) {
	f, err := required(params, "scale_income", "factor")
	if err != nil {
		return nil, err
	}
	factor, err := decimal.NewFromString(f)
	if err != nil {
		return nil, fmt.Errorf("invalid factor value: %w", err)
	}
	if factor.IsNegative() {
		return nil, &domain.InvalidInputError{Field: "factor", Value: factor, Reason: "must be non-negative"}
	}
	m := &ScaleIncome{Factor: factor}
	if t, ok := params["type"]; ok {
		kind := domain.IncomeType(t)
		if !kind.Valid() {
			return nil, &domain.InvalidInputError{Field: "type", Value: t, Reason: "unknown income type"}
		}
		m.Type = kind
	}
	return m, nil
}
