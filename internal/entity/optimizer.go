package entity

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/shopspring/decimal"
)

// Request describes the business to compare.
type Request struct {
	NetIncome    decimal.Decimal     `json:"net_income"`
	Occupation   string              `json:"occupation"`
	State        string              `json:"state"`
	FilingStatus domain.FilingStatus `json:"filing_status,omitempty"`
	TaxYear      int                 `json:"tax_year"`
	// Salary replaces the benchmark salary when set.
	Salary *decimal.Decimal `json:"salary,omitempty"`
	// Household carries the owner's other tax facts. Its business income
	// items are replaced by the structure being evaluated.
	Household *domain.TaxpayerProfile `json:"household,omitempty"`
}

func (r Request) validate() error {
	if r.NetIncome.IsNegative() {
		return &domain.InvalidInputError{Field: "net_income", Value: r.NetIncome, Reason: "must be non-negative"}
	}
	if r.NetIncome.GreaterThan(domain.MaxIncomeAmount) {
		return &domain.ComputationLimitError{Field: "net_income", Value: r.NetIncome, Limit: domain.MaxIncomeAmount}
	}
	if strings.TrimSpace(r.State) == "" && r.Household == nil {
		return &domain.IncompleteProfileError{Field: "state"}
	}
	if r.Salary != nil && r.Salary.IsNegative() {
		return &domain.InvalidInputError{Field: "salary", Value: *r.Salary, Reason: "must be non-negative"}
	}
	return nil
}

// Optimizer compares sole proprietorship, single-member LLC and S-Corp
// treatment of the same net business income. Each structure is priced by
// running the full tax computation on a synthesized profile.
type Optimizer struct {
	Calc       *calculation.TaxCalculator
	Benchmarks BenchmarkProvider
	Options    Options
}

// NewOptimizer creates an entity optimizer
func NewOptimizer(calc *calculation.TaxCalculator, benchmarks BenchmarkProvider, opts Options) *Optimizer {
	return &Optimizer{Calc: calc, Benchmarks: benchmarks, Options: opts}
}

// Compare prices every structure and recommends the cheapest one that the
// policy allows. Sole proprietorship wins ties.
func (o *Optimizer) Compare(req Request) (*domain.EntityComparison, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := o.Options.Policy.Validate(); err != nil {
		return nil, err
	}
	base, err := o.household(req)
	if err != nil {
		return nil, err
	}
	fed, err := o.Calc.Tables.Federal(req.TaxYear)
	if err != nil {
		return nil, err
	}
	st, err := o.Calc.Tables.State(req.TaxYear, base.State)
	if err != nil {
		return nil, err
	}
	bench, err := o.Benchmarks.Benchmark(req.Occupation, base.State)
	if err != nil {
		return nil, err
	}

	net := req.NetIncome
	sole, err := o.soleProp(base, net, bench, fed, st)
	if err != nil {
		return nil, err
	}

	llc := sole
	llc.Entity = domain.EntityLLC
	llc.Label = domain.EntityLLC.Label()
	llc.ComplianceCost = st.LLCAnnualFee
	llc.NetBurden = sole.NetBurden.Add(st.LLCAnnualFee)

	salary := o.salaryFor(net, bench, req.Salary)
	scorp, err := o.sCorp(base, net, salary, bench, fed, st)
	if err != nil {
		return nil, err
	}

	options := []domain.EntityOption{sole, llc, scorp}
	for i := range options {
		options[i].SavingsVsSole = sole.NetBurden.Sub(options[i].NetBurden)
		options[i].QBIImpact = options[i].QBIDeduction.Sub(sole.QBIDeduction)
	}

	cmp := &domain.EntityComparison{
		NetIncome:   net,
		Occupation:  bench.Occupation,
		State:       base.State,
		TaxYear:     fed.Metadata.TaxYear,
		Benchmark:   bench.Salary,
		Options:     options,
		Recommended: domain.EntitySoleProp,
	}

	best := sole
	for _, opt := range options[1:] {
		if opt.Entity == domain.EntitySCorp && net.LessThan(o.Options.LowIncomeThreshold) {
			continue
		}
		if opt.NetBurden.LessThan(best.NetBurden) {
			best = opt
		}
	}
	cmp.Recommended = best.Entity

	if net.LessThan(o.Options.LowIncomeThreshold) {
		cmp.Notes = append(cmp.Notes, fmt.Sprintf("Net income below %s: S-Corp compliance overhead outweighs payroll tax savings.",
			o.Options.LowIncomeThreshold.StringFixed(0)))
	}
	if scorp.Risk == domain.RiskHigh {
		cmp.Notes = append(cmp.Notes, fmt.Sprintf("S-Corp salary is %s%% of net income; reasonable compensation could be challenged.",
			scorp.SalaryRatio.Mul(decimal.NewFromInt(100)).StringFixed(1)))
	}
	if st.LLCAnnualFee.IsPositive() {
		cmp.Notes = append(cmp.Notes, fmt.Sprintf("%s charges an annual LLC fee of %s.", st.Name, st.LLCAnnualFee.StringFixed(0)))
	}
	cmp.Notes = append(cmp.Notes, "Salary risk grading is advisory and does not determine what the IRS will accept.")

	if be, ok, err := o.breakEvenSalary(base, net, bench, sole.NetBurden, fed, st); err != nil {
		return nil, err
	} else if ok {
		cmp.BreakEvenSalary = &be
	}
	return cmp, nil
}

// household builds the profile the structures are layered onto.
func (o *Optimizer) household(req Request) (*domain.TaxpayerProfile, error) {
	var p *domain.TaxpayerProfile
	if req.Household != nil {
		p = req.Household.DeepCopy()
		kept := p.Income[:0]
		for _, it := range p.Income {
			if !it.Type.IsBusiness() {
				kept = append(kept, it)
			}
		}
		p.Income = kept
	} else {
		fs := req.FilingStatus
		if fs == "" {
			fs = domain.FilingSingle
		}
		p = &domain.TaxpayerProfile{FilingStatus: fs}
		if fs.RequiresSpouse() {
			p.Spouse = &domain.Person{}
		}
	}
	if s := strings.TrimSpace(req.State); s != "" {
		p.State = strings.ToUpper(s)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// salaryFor starts from the benchmark (or the caller's salary), clamps it to
// [0, net] and applies the policy floor.
func (o *Optimizer) salaryFor(net decimal.Decimal, bench Benchmark, override *decimal.Decimal) decimal.Decimal {
	salary := bench.Salary
	if override != nil {
		salary = *override
	}
	if floor := net.Mul(o.Options.Policy.SalaryFloorRatio); salary.LessThan(floor) {
		salary = floor
	}
	return clamp(salary, decimal.Zero, net).Round(2)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

func (o *Optimizer) soleProp(base *domain.TaxpayerProfile, net decimal.Decimal, bench Benchmark, fed *domain.TaxYearTable, st *domain.StateTaxTable) (domain.EntityOption, error) {
	p := base.DeepCopy()
	if net.IsPositive() {
		p.Income = append(p.Income, domain.IncomeItem{
			Type:        domain.IncomeSelfEmployment,
			Amount:      net,
			Description: "business net income",
			Business:    &domain.BusinessDetails{Name: "business", Occupation: bench.Occupation, SSTB: bench.SSTB},
		})
	}
	pos, err := o.Calc.ComputeWithTables(p, fed, st)
	if err != nil {
		return domain.EntityOption{}, err
	}
	federal := pos.FederalTotal.Sub(pos.Refund)
	opt := domain.EntityOption{
		Entity:        domain.EntitySoleProp,
		Label:         domain.EntitySoleProp.Label(),
		Distribution:  net,
		EmploymentTax: pos.SETax,
		IncomeTax:     federal.Sub(pos.SETax),
		StateTax:      pos.StateTax,
		QBIDeduction:  pos.QBIDeduction,
	}
	opt.NetBurden = pos.NetTax()
	return opt, nil
}

// sCorp prices the S-Corp at the given salary. The employer half of payroll
// tax is a corporate deduction, so it also reduces the pass-through income.
func (o *Optimizer) sCorp(base *domain.TaxpayerProfile, net, salary decimal.Decimal, bench Benchmark, fed *domain.TaxYearTable, st *domain.StateTaxTable) (domain.EntityOption, error) {
	payroll := o.Calc.Special.PayrollTax(salary, fed)
	employerHalf := payroll.Div(decimal.NewFromInt(2)).Round(2)
	corpIncome := decimal.Max(decimal.Zero, net.Sub(salary).Sub(employerHalf))

	p := base.DeepCopy()
	if salary.IsPositive() {
		p.Income = append(p.Income, domain.IncomeItem{Type: domain.IncomeWages, Amount: salary, Description: "S-Corp salary"})
	}
	if corpIncome.IsPositive() {
		p.Income = append(p.Income, domain.IncomeItem{
			Type:        domain.IncomePassThrough,
			Amount:      corpIncome,
			Description: "S-Corp distribution",
			Business: &domain.BusinessDetails{
				Name:       "business",
				Occupation: bench.Occupation,
				SSTB:       bench.SSTB,
				W2Wages:    salary,
			},
		})
	}
	pos, err := o.Calc.ComputeWithTables(p, fed, st)
	if err != nil {
		return domain.EntityOption{}, err
	}

	franchise := decimal.Zero
	if st.SCorpFranchiseRate.IsPositive() || st.SCorpMinimumTax.IsPositive() {
		franchise = decimal.Max(corpIncome.Mul(st.SCorpFranchiseRate), st.SCorpMinimumTax).Round(2)
	}
	compliance := o.Options.PayrollProcessingCost.Add(o.Options.ExtraFilingCost).Add(franchise)

	ratio := decimal.Zero
	if net.IsPositive() {
		ratio = salary.Div(net).Round(4)
	}
	federal := pos.FederalTotal.Sub(pos.Refund)
	opt := domain.EntityOption{
		Entity:         domain.EntitySCorp,
		Label:          domain.EntitySCorp.Label(),
		Salary:         salary,
		Distribution:   corpIncome,
		EmploymentTax:  payroll,
		IncomeTax:      federal,
		StateTax:       pos.StateTax,
		QBIDeduction:   pos.QBIDeduction,
		ComplianceCost: compliance,
		SalaryRatio:    ratio,
		Risk:           o.Options.Policy.Classify(ratio),
	}
	opt.NetBurden = payroll.Add(pos.NetTax()).Add(compliance)
	return opt, nil
}
