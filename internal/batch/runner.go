// Package batch computes many taxpayer profiles concurrently.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/domain"
	"github.com/rgehrsitz/taxadvisor/internal/recommend"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when a runner is created with a limit below one.
const DefaultConcurrency = 4

// Result is the outcome for one profile. Exactly one of Position and Error
// is set.
type Result struct {
	Index           int                          `json:"index"`
	ProfileID       string                       `json:"profile_id"`
	Position        *domain.TaxPosition          `json:"position,omitempty"`
	Recommendations *domain.RecommendationReport `json:"recommendations,omitempty"`
	Error           string                       `json:"error,omitempty"`
	err             error
}

// Err returns the typed error behind Error.
func (r Result) Err() error { return r.err }

// Report summarizes a batch run. Results keep the input order.
type Report struct {
	RunID          string          `json:"run_id"`
	TaxYear        int             `json:"tax_year"`
	Results        []Result        `json:"results"`
	Succeeded      int             `json:"succeeded"`
	Failed         int             `json:"failed"`
	TotalLiability decimal.Decimal `json:"total_liability"`
	TotalSavings   decimal.Decimal `json:"total_estimated_savings"`
	Elapsed        time.Duration   `json:"elapsed"`
}

// Runner fans profile computations out over a bounded number of goroutines.
// A profile that fails to compute is reported in its Result and does not
// stop the run.
type Runner struct {
	Calc        *calculation.TaxCalculator
	Advisor     *recommend.Engine
	Concurrency int
	log         *zap.Logger
}

// NewRunner creates a batch runner. advisor may be nil to skip
// recommendations.
func NewRunner(calc *calculation.TaxCalculator, advisor *recommend.Engine, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Runner{
		Calc:        calc,
		Advisor:     advisor,
		Concurrency: concurrency,
		log:         zap.L().Named("batch"),
	}
}

// Run computes every profile for year. It returns early only when ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context, profiles []*domain.TaxpayerProfile, year int) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:          uuid.NewString(),
		TaxYear:        year,
		Results:        make([]Result, len(profiles)),
		TotalLiability: decimal.Zero,
		TotalSavings:   decimal.Zero,
	}
	log := r.log.With(zap.String("run_id", report.RunID), zap.Int("profiles", len(profiles)), zap.Int("tax_year", year))
	log.Info("batch started", zap.Int("concurrency", r.Concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)

	for i, p := range profiles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each goroutine writes only its own slot.
			report.Results[i] = r.computeOne(i, p, year)
			if err := report.Results[i].err; err != nil {
				log.Warn("profile failed",
					zap.Int("index", i),
					zap.String("profile_id", report.Results[i].ProfileID),
					zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: run cancelled")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: run cancelled")
	}

	for _, res := range report.Results {
		if res.err != nil {
			report.Failed++
			continue
		}
		report.Succeeded++
		report.TotalLiability = report.TotalLiability.Add(res.Position.TotalLiability)
		if res.Recommendations != nil {
			report.TotalSavings = report.TotalSavings.Add(res.Recommendations.TotalSavings)
		}
	}
	report.Elapsed = time.Since(start)

	log.Info("batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (r *Runner) computeOne(i int, p *domain.TaxpayerProfile, year int) Result {
	res := Result{Index: i}
	if p == nil {
		res.err = &domain.IncompleteProfileError{Field: "profile"}
		res.Error = res.err.Error()
		return res
	}
	res.ProfileID = p.ID
	if res.ProfileID == "" {
		res.ProfileID = fmt.Sprintf("profile-%d", i+1)
	}

	pos, err := r.Calc.ComputeTax(p, year)
	if err != nil {
		res.err = err
		res.Error = err.Error()
		return res
	}
	res.Position = pos

	if r.Advisor != nil {
		recs, err := r.Advisor.Recommend(p, pos)
		if err != nil {
			res.Position = nil
			res.err = err
			res.Error = err.Error()
			return res
		}
		res.Recommendations = recs
	}
	return res
}
