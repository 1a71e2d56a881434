package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexshd/bounce"
)

type app struct {
	v          *viper.Viper
	configPath string
	cfg        settings
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "bounce",
		Short: "Bouncing-ball distance formulas: evaluate, cross-check, benchmark",
		Long: `bounce computes the total distance a ball dropped from height h travels
over n bounces with restitution ratio r, using ten equivalent formulas, and
compares their agreement and growth order in n.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(a.v, a.configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			if used := a.v.ConfigFileUsed(); used != "" {
				logger.Debug("config loaded", "path", used)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.Float64P("height", "H", 10, "drop height h")
	pf.Float64P("restitution", "r", 0.85, "restitution ratio r")
	pf.StringSlice("variant", nil, "restrict to these variants (repeatable, comma-separated)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	cobra.CheckErr(bindFlags(a.v, pf, "", "height", "restitution", "log-level"))
	cobra.CheckErr(a.v.BindPFlag("variants", pf.Lookup("variant")))

	root.AddCommand(
		a.evalCmd(),
		a.verifyCmd(),
		a.benchCmd(),
		a.variantsCmd(),
	)
	return root
}

// selected returns the variants named by --variant, or all of them.
func (a *app) selected() ([]bounce.Variant, error) {
	if len(a.cfg.Variants) == 0 {
		return bounce.Variants(), nil
	}
	out := make([]bounce.Variant, 0, len(a.cfg.Variants))
	for _, name := range a.cfg.Variants {
		v, err := bounce.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (a *app) evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Print each variant's distance for one (h, r, n)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := a.selected()
			if err != nil {
				return err
			}

			h, r, n := a.cfg.Height, a.cfg.Restitution, a.cfg.Bounces
			ref := bounce.Reference()
			c := bounce.Case{Group: "eval", H: h, R: r, N: n}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "variant\tdistance\trel err vs %s\n", ref.Name)
			for _, v := range variants {
				d := bounce.Compare(v, ref, c)
				fmt.Fprintf(tw, "%s\t%.17g\t%.2e\n", v.Name, d.Got, d.RelErr)
				if !d.OK {
					a.logger.Warn("out of tolerance", "variant", v.Name, "rel_err", d.RelErr, "tol", d.Tol)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntP("bounces", "n", 10, "number of bounces n (≥ 1)")
	cobra.CheckErr(bindFlags(a.v, cmd.Flags(), "", "bounces"))
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every variant against the reference on the equivalence matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := a.selected()
			if err != nil {
				return err
			}
			cases := bounce.EquivalenceCases()

			report, err := bounce.Verify(cmd.Context(), variants, cases, bounce.VerifyOptions{Logger: a.logger})
			if err != nil {
				return err
			}

			edgeFailures := 0
			worst := report.WorstByVariant()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "variant\tcases\tworst rel err\texact edges")
			for _, v := range variants {
				edges := bounce.CheckEdgeCases(v, bounce.DefaultEdgeInputs())
				failed := 0
				for _, d := range edges {
					if !d.OK {
						failed++
						a.logger.Warn("edge case not exact", "variant", v.Name, "case", d.Case.String(), "got", d.Got, "want", d.Want)
					}
				}
				edgeFailures += failed
				fmt.Fprintf(tw, "%s\t%d\t%.2e\t%d/%d\n", v.Name, len(cases), worst[v.Name], len(edges)-failed, len(edges))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			mismatches := len(report.Mismatches())
			if mismatches > 0 || edgeFailures > 0 {
				return fmt.Errorf("%d tolerance mismatches, %d inexact edge cases", mismatches, edgeFailures)
			}
			a.logger.Info("all variants agree", "variants", len(variants), "cases", len(cases), "reference", report.Reference)
			return nil
		},
	}
}

func (a *app) benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time each variant as n doubles and fit its growth order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := a.selected()
			if err != nil {
				return err
			}

			bs := a.cfg.Bench
			cfg := bounce.DefaultConfig()
			cfg.H = a.cfg.Height
			cfg.R = a.cfg.Restitution
			cfg.Ns = bounce.GeometricRange(1, bs.MaxN, 2)
			cfg.MinTime = bs.MinTime
			cfg.Warmup = bs.Warmup
			cfg.Samples = bs.Samples
			cfg.MaxProcs = bs.MaxProcs
			cfg.Logger = a.logger

			a.logger.Info("benchmark starting",
				"variants", len(variants), "points", len(cfg.Ns), "min_time", cfg.MinTime, "samples", cfg.Samples)

			series, err := bounce.Run(cmd.Context(), variants, cfg)
			if err != nil {
				return err
			}

			report := bounce.NewBenchReport(series, cfg)
			if err := report.WriteTable(cmd.OutOrStdout()); err != nil {
				return err
			}

			for _, s := range series {
				for _, p := range s.Points {
					if p.Noisy() {
						a.logger.Warn("noisy measurement", "variant", s.Variant, "n", p.N, "tail_ratio", p.TailRatio)
					}
				}
				if !s.Matches() {
					a.logger.Warn("growth order differs from declared",
						"variant", s.Variant, "declared", s.Declared.String(), "fitted", s.Fit.Class.String())
				}
			}

			if bs.Out == "" {
				return nil
			}
			return writeReport(bs.Out, report, a.logger)
		},
	}

	f := cmd.Flags()
	f.Int("max-n", 4096, "largest bounce count; n doubles from 1")
	f.Duration("min-time", 20*time.Millisecond, "minimum timed duration per sample")
	f.Duration("warmup", 5*time.Millisecond, "untimed warmup per point")
	f.Int("samples", 3, "samples per point; the median is reported")
	f.Int("max-procs", 0, "GOMAXPROCS during the run (0 = unchanged)")
	f.StringP("out", "o", "", "write the YAML report to this file")
	cobra.CheckErr(bindFlags(a.v, f, "bench", "max-n", "min-time", "warmup", "samples", "max-procs", "out"))
	return cmd
}

func writeReport(path string, report bounce.BenchReport, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	logger.Info("report written", "path", path, "series", len(report.Series))
	return nil
}

func (a *app) variantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the available variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "name\tcomplexity\tnotes")
			for _, v := range bounce.Variants() {
				notes := v.Notes
				if v.Reference {
					notes += " (reference)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, v.Class, notes)
			}
			return tw.Flush()
		},
	}
}
