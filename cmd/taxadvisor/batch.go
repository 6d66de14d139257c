package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rgehrsitz/taxadvisor/internal/batch"
	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/output"
	"github.com/rgehrsitz/taxadvisor/internal/recommend"
	"github.com/spf13/cobra"
)

func (c *cli) batchCmd() *cobra.Command {
	var (
		concurrency int
		advise      bool
	)
	cmd := &cobra.Command{
		Use:   "batch [input-file]",
		Short: "Compute every profile in an input file concurrently",
		Long: `Compute the tax position of every profile listed under "profiles" (and the
single "profile", if present). A profile that fails is reported with its error
and does not stop the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			profiles := doc.Profiles
			if doc.Profile != nil {
				profiles = append(profiles, doc.Profile)
			}

			svc, err := c.services()
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = c.settings.Batch.Concurrency
			}
			var advisor *recommend.Engine
			if advise {
				advisor = svc.Advisor
			}
			runner := batch.NewRunner(svc.Calc, advisor, concurrency)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			report, err := runner.Run(ctx, profiles, c.taxYear(doc.TaxYear, svc.Tables))
			if err != nil {
				return err
			}
			return c.emit(cmd, &output.Report{Title: "Batch Computation", Batch: report})
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Profiles computed at once (default: batch.concurrency setting)")
	cmd.Flags().BoolVar(&advise, "recommend", false, "Also run the recommendation engine for each profile")
	return cmd
}
