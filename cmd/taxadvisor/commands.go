package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/rgehrsitz/taxadvisor/internal/output"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const defaultHorizonYears = 10

func loadProfile(path string) (*config.InputDocument, error) {
	doc, err := config.NewInputParser().LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if doc.Profile == nil {
		return nil, fmt.Errorf("%s: %w", path, &domain.IncompleteProfileError{Field: "profile"})
	}
	return doc, nil
}

func (c *cli) computeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute [input-file]",
		Short: "Compute the tax position for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			year := c.taxYear(doc.TaxYear, svc.Tables)
			pos, err := svc.Calc.ComputeTax(doc.Profile, year)
			if err != nil {
				return err
			}
			return c.emit(cmd, &output.Report{Title: "Tax Position", Profile: doc.Profile, Position: pos})
		},
	}
}

func (c *cli) recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend [input-file]",
		Short: "Recommend tax strategies ranked by estimated savings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			svc, err := c.services()
			if err != nil {
				return err
			}
			pos, err := svc.Calc.ComputeTax(doc.Profile, c.taxYear(doc.TaxYear, svc.Tables))
			if err != nil {
				return err
			}
			report, err := svc.Advisor.Recommend(doc.Profile, pos)
			if err != nil {
				return err
			}
			return c.emit(cmd, &output.Report{Title: "Tax Strategy Recommendations", Profile: doc.Profile, Position: pos, Recommendations: report})
		},
	}
}

func (c *cli) entitiesCmd() *cobra.Command {
	var (
		netIncome    string
		occupation   string
		state        string
		filingStatus string
		salary       string
		household    string
	)
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Compare sole proprietorship, LLC and S-Corp treatment of business income",
		Long: `Compare sole proprietorship, single-member LLC and S-Corp treatment of the
same net business income, including payroll taxes, the QBI deduction, state
entity taxes and compliance costs.

Examples:
  taxadvisor entities --net-income 150000 --occupation consultant --state TX
  taxadvisor entities --net-income 150000 --salary 90000 --household household.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			net, err := decimal.NewFromString(netIncome)
			if err != nil {
				return &domain.InvalidInputError{Field: "net_income", Value: netIncome, Reason: "not a number"}
			}
			req := entity.Request{NetIncome: net, Occupation: occupation, State: state}
			if filingStatus != "" {
				fs, err := domain.ParseFilingStatus(filingStatus)
				if err != nil {
					return err
				}
				req.FilingStatus = fs
			}
			if salary != "" {
				s, err := decimal.NewFromString(salary)
				if err != nil {
					return &domain.InvalidInputError{Field: "salary", Value: salary, Reason: "not a number"}
				}
				req.Salary = &s
			}

			svc, err := c.services()
			if err != nil {
				return err
			}
			req.TaxYear = c.taxYear(0, svc.Tables)
			if household != "" {
				doc, err := loadProfile(household)
				if err != nil {
					return err
				}
				req.Household = doc.Profile
				req.TaxYear = c.taxYear(doc.TaxYear, svc.Tables)
			}

			cmp, err := svc.Entities.Compare(req)
			if err != nil {
				return err
			}
			return c.emit(cmd, &output.Report{Title: "Entity Structure Comparison", Entities: cmp})
		},
	}
	cmd.Flags().StringVar(&netIncome, "net-income", "", "Net business income (required)")
	cmd.Flags().StringVar(&occupation, "occupation", "", "Occupation used for the reasonable salary benchmark")
	cmd.Flags().StringVar(&state, "state", "", "Two-letter state code")
	cmd.Flags().StringVar(&filingStatus, "filing-status", "", "Filing status when no household file is given")
	cmd.Flags().StringVar(&salary, "salary", "", "S-Corp salary (default: the occupation benchmark)")
	cmd.Flags().StringVar(&household, "household", "", "Input file whose profile supplies the owner's other tax facts")
	_ = cmd.MarkFlagRequired("net-income")
	return cmd
}

func (c *cli) projectCmd() *cobra.Command {
	var (
		years    int
		xlsxPath string
		contrib  string
		rate     string
	)
	cmd := &cobra.Command{
		Use:   "project [input-file]",
		Short: "Project tax savings from retirement contributions over several years",
		Long: `Project a contribution plan over a horizon of years against a baseline without
contributions. Assumptions come from the input file's projection section and
fall back to the configured defaults. Years beyond the latest published tables
use tables indexed by the inflation assumption.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			horizon, assumptions := c.projectionInput(doc)
			if years > 0 {
				horizon = years
			}
			if c.year > 0 {
				assumptions.StartYear = c.year
			}
			if contrib != "" && rate != "" {
				return eris.New("use either --contribution or --contribution-rate")
			}
			if contrib != "" {
				amount, err := decimal.NewFromString(contrib)
				if err != nil {
					return &domain.InvalidInputError{Field: "annual_contribution", Value: contrib, Reason: "not a number"}
				}
				assumptions.AnnualContribution = amount
				assumptions.ContributionRate = decimal.Zero
			}
			if rate != "" {
				r, err := decimal.NewFromString(rate)
				if err != nil {
					return &domain.InvalidInputError{Field: "contribution_rate", Value: rate, Reason: "not a number"}
				}
				assumptions.ContributionRate = r
				assumptions.AnnualContribution = decimal.Zero
			}

			svc, err := c.services()
			if err != nil {
				return err
			}
			res, err := svc.Projections.Project(doc.Profile, horizon, assumptions)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := output.WriteProjectionWorkbook(xlsxPath, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Workbook written to %s\n", xlsxPath)
			}
			return c.emit(cmd, &output.Report{Title: "Multi-Year Projection", Profile: doc.Profile, Projection: res})
		},
	}
	cmd.Flags().IntVarP(&years, "years", "y", 0, "Horizon in years (default: the input file's horizon, else 10)")
	cmd.Flags().StringVar(&contrib, "contribution", "", "Annual retirement contribution")
	cmd.Flags().StringVar(&rate, "contribution-rate", "", "Share of earned income contributed each year, capped at the deferral limit (e.g. 0.10)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the projection to this Excel workbook")
	return cmd
}

// projectionInput returns the file's projection section or the configured
// default assumptions.
func (c *cli) projectionInput(doc *config.InputDocument) (int, domain.ProjectionAssumptions) {
	if doc.Projection != nil {
		a := doc.Projection.ProjectionAssumptions
		if a.StartYear == 0 {
			a.StartYear = doc.TaxYear
		}
		return doc.Projection.HorizonYears, a
	}
	pc := c.settings.Projection
	return defaultHorizonYears, domain.ProjectionAssumptions{
		StartYear:        doc.TaxYear,
		IncomeGrowth:     decimal.NewFromFloat(pc.IncomeGrowth),
		Inflation:        decimal.NewFromFloat(pc.Inflation),
		ReturnRate:       decimal.NewFromFloat(pc.ReturnRate),
		ContributionRate: decimal.NewFromFloat(pc.ContributionRate),
	}
}

func (c *cli) scenarioCmd() *cobra.Command {
	var (
		mutations []string
		each      bool
		list      bool
	)
	cmd := &cobra.Command{
		Use:   "scenario [input-file]",
		Short: "Evaluate what-if changes against the baseline",
		Long: `Apply profile mutations and report how the net tax changes. Mutations compose
in order unless --each evaluates them one at a time against the same baseline.

Mutation format: name:key=value,key=value

Examples:
  taxadvisor scenario profile.yaml -m set_retirement_contribution:amount=5000
  taxadvisor scenario profile.yaml -m set_hsa:amount=4300 -m add_dependent:age=3 --each
  taxadvisor scenario --list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			if list {
				for _, name := range svc.Scenarios.Registry.List() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if len(mutations) == 0 {
				return eris.New("at least one --mutation is required")
			}

			doc, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			year := c.taxYear(doc.TaxYear, svc.Tables)
			var results []domain.ScenarioResult
			if each {
				ms, err := svc.Scenarios.Registry.ParseSpecs(mutations)
				if err != nil {
					return err
				}
				results, err = svc.Scenarios.AnalyzeEach(doc.Profile, year, ms)
				if err != nil {
					return err
				}
			} else {
				res, err := svc.Scenarios.AnalyzeSpecs(doc.Profile, year, mutations)
				if err != nil {
					return err
				}
				results = []domain.ScenarioResult{*res}
			}
			return c.emit(cmd, &output.Report{Title: "What-If Scenarios", Profile: doc.Profile, Scenarios: results})
		},
	}
	cmd.Flags().StringArrayVarP(&mutations, "mutation", "m", nil, "Mutation spec (repeatable)")
	cmd.Flags().BoolVar(&each, "each", false, "Evaluate each mutation separately")
	cmd.Flags().BoolVar(&list, "list", false, "List available mutations")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate an input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			n := len(doc.Profiles)
			if doc.Profile != nil {
				n++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Input file %s is valid (%d profile(s))\n", args[0], n)
			return nil
		},
	}
}

func (c *cli) tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect or export the tax tables",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tax years and states with published tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services()
			if err != nil {
				return err
			}
			for _, year := range svc.Tables.Years() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", year, strings.Join(svc.Tables.StateCodes(year), " "))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "write [dir]",
		Short: "Write the built-in tables to a directory for editing",
		Long: `Write the built-in tables to a directory. Edited copies can be loaded back
with --tables-dir; a table there replaces the built-in table for the same
year and state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTables(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tables written to %s\n", args[0])
			return nil
		},
	})
	return cmd
}
