package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rgehrsitz/taxadvisor/internal/api"
	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/rgehrsitz/taxadvisor/internal/output"
	"github.com/rgehrsitz/taxadvisor/internal/recommend"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli holds the root flags and the state loaded before a command runs.
type cli struct {
	configFile string
	format     string
	tablesDir  string
	outputDir  string
	year       int

	settings *config.Settings
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "taxadvisor",
		Short: "Tax computation and advisory engine",
		Long: `Computes federal and state tax positions for a taxpayer profile, compares
business entity structures, projects multi-year tax savings, recommends
strategies and evaluates what-if scenarios.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(c.configFile)
			if err != nil {
				return err
			}
			if err := config.InitLogger(s.Log); err != nil {
				return err
			}
			c.settings = s
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "Settings file (default: ./taxadvisor.yaml if present)")
	flags.StringVarP(&c.format, "format", "f", "console", "Output format (console, console-lite, json, json-compact, csv, html, xlsx)")
	flags.StringVar(&c.tablesDir, "tables-dir", "", "Directory with tax table overrides")
	flags.IntVar(&c.year, "year", 0, "Tax year (default: the input file's year, then the configured default)")
	flags.StringVar(&c.outputDir, "output-dir", "", "Write the report to a timestamped file in this directory instead of stdout")

	root.AddCommand(
		c.computeCmd(),
		c.recommendCmd(),
		c.entitiesCmd(),
		c.projectCmd(),
		c.scenarioCmd(),
		c.batchCmd(),
		c.serveCmd(),
		c.validateCmd(),
		c.tablesCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxadvisor %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

// services loads the tables and benchmarks and wires every engine. The
// engines log through the global zap logger.
func (c *cli) services() (*api.Services, error) {
	dir := c.tablesDir
	if dir == "" {
		dir = c.settings.Tables.Dir
	}
	tables, err := config.LoadTables(dir)
	if err != nil {
		return nil, err
	}

	var benchmarks *entity.StaticBenchmarks
	if path := c.settings.Entity.BenchmarkFile; path != "" {
		benchmarks, err = entity.LoadBenchmarks(path)
	} else {
		benchmarks, err = entity.DefaultBenchmarks()
	}
	if err != nil {
		return nil, err
	}

	svc := api.NewServices(tables, benchmarks, entity.OptionsFromConfig(c.settings.Entity))
	sugar := zap.L().Sugar()
	svc.Calc.SetLogger(sugar)
	svc.Projections.SetLogger(sugar)
	svc.Advisor.SetLogger(sugar)
	svc.Advisor.Bands = recommend.BandsFromConfig(c.settings.Recommend)
	return svc, nil
}

// taxYear picks the --year flag, then the input file's year, then the
// configured default, then the latest published table.
func (c *cli) taxYear(docYear int, tables *config.TableSet) int {
	switch {
	case c.year > 0:
		return c.year
	case docYear > 0:
		return docYear
	case c.settings.Tables.DefaultYear > 0:
		return c.settings.Tables.DefaultYear
	default:
		return tables.LatestYear()
	}
}

// emit renders the report in the selected format to stdout or, with
// --output-dir, to a file.
func (c *cli) emit(cmd *cobra.Command, r *output.Report) error {
	f := output.GetFormatterByName(c.format)
	if f == nil {
		return eris.Errorf("unknown format %q (available: %v, aliases: %v)", c.format, output.AvailableFormats(), output.AvailableFormatAliases())
	}
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", c.outputDir)
		}
		path, err := output.WriteFormatted(c.outputDir, f, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
		return nil
	}
	return output.Write(cmd.OutOrStdout(), f, r)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
