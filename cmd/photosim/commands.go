package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/document"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/improvement"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/layout"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/material"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/sweep"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/config"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
)

func (c *cli) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Write the circuit document from the project's HCL layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := c.loadProject(cmd)
			if err != nil {
				return err
			}
			if proj.Document.Layout == "" {
				return fmt.Errorf("document.layout is not set in %s", c.configPath)
			}
			l, err := layout.Load(proj.Document.Layout)
			if err != nil {
				return err
			}
			libDir := ""
			if proj.Materials != nil {
				libDir = proj.Materials.Library
			}
			doc, err := l.Build(material.NewLibrary(libDir))
			if err != nil {
				return err
			}
			path := proj.Document.Path()
			if err := doc.Save(path); err != nil {
				return err
			}
			logger.Debug("layout built", "layout", proj.Document.Layout, "monitors", doc.Count(document.Monitors),
				"launches", doc.Count(document.Launches))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *cli) simCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sim [symbol=value ...]",
		Short: "Run the engine once on the document",
		Long: `Run the engine once. Overrides are passed to the engine as symbol=value
arguments and name the run directory; without them the prefix is "default".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseOverrides(args)
			if err != nil {
				return err
			}
			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			return s.run(cmd.Context(), models.JobSim, func(ctx context.Context) (outcome, error) {
				r, err := s.sched.RunSingle(ctx, overrides)
				if err != nil {
					return outcome{}, err
				}
				return emit(r)
			})
		},
	}
}

// paramFlag lets a command replace the project's parameter lists with
// --param name=v1,v2,... given in order.
type paramFlag struct {
	raw []string
}

func (p *paramFlag) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&p.raw, "param", "p", nil, "symbol=v1,v2,... (repeatable, replaces the project's list)")
}

func (p *paramFlag) resolve(fallback []config.Parameter) ([]config.Parameter, error) {
	if len(p.raw) == 0 {
		return fallback, nil
	}
	out := make([]config.Parameter, 0, len(p.raw))
	for _, r := range p.raw {
		name, list, ok := strings.Cut(r, "=")
		if !ok || name == "" || list == "" {
			return nil, fmt.Errorf("--param %q must look like symbol=v1,v2", r)
		}
		prm := config.Parameter{Name: name}
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("--param %s: %w", name, err)
			}
			prm.Values = append(prm.Values, v)
		}
		out = append(out, prm)
	}
	return out, nil
}

func sweepParameters(proj *config.Project) []config.Parameter {
	if proj.Sweep == nil {
		return nil
	}
	return proj.Sweep.Parameters
}

func (c *cli) scanCmd() *cobra.Command {
	var params paramFlag
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Sweep two symbols over the grid of their values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			list, err := params.resolve(sweepParameters(s.project))
			if err != nil {
				return err
			}
			if len(list) != 2 {
				return fmt.Errorf("scan needs exactly two parameters, got %d", len(list))
			}
			names, values, err := expandParameters(list)
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), models.JobScan, func(ctx context.Context) (outcome, error) {
				r, err := s.sched.RunGrid(ctx, sweep.Grid{
					Names:  [2]string{names[0], names[1]},
					Values: [2][]float64{values[0], values[1]},
				})
				if err != nil {
					return outcome{}, err
				}
				return emit(r)
			})
		},
	}
	params.register(cmd)
	return cmd
}

func (c *cli) oedCmd() *cobra.Command {
	var params paramFlag
	cmd := &cobra.Command{
		Use:   "oed",
		Short: "Run an orthogonal design over the factors against the last symbol",
		Long: `Arrange every parameter but the last in an orthogonal array and run each
case against every value of the last parameter (usually the wavelength).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			list, err := params.resolve(sweepParameters(s.project))
			if err != nil {
				return err
			}
			names, values, err := expandParameters(list)
			if err != nil {
				return err
			}
			return s.run(cmd.Context(), models.JobDesign, func(ctx context.Context) (outcome, error) {
				r, err := s.sched.RunOrthogonal(ctx, sweep.Design{Names: names, Values: values})
				if err != nil {
					return outcome{}, err
				}
				return emit(r)
			})
		},
	}
	params.register(cmd)
	return cmd
}

func (c *cli) optimizeCmd() *cobra.Command {
	var params paramFlag
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize symbols one at a time, patching each winner into a working copy",
		Long: `Each round sweeps one symbol against the last (companion) symbol, picks the
value with the lowest mean composite loss, and patches it into the working
document before the next round. The companion itself is never optimized.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()
			var fallback []config.Parameter
			if s.project.Optimization != nil {
				fallback = s.project.Optimization.Parameters
			}
			list, err := params.resolve(fallback)
			if err != nil {
				return err
			}
			names, values, err := expandParameters(list)
			if err != nil {
				return err
			}

			loop := improvement.NewLoop(s.sched).
				WithRecorder(s.store).
				WithProgressReporter(func(p improvement.Progress) {
					if p.State == improvement.StatePatching {
						fmt.Fprintf(s.out, "round %d: %s=%s (score %s)\n", p.Round, p.Symbol,
							document.FormatValue(p.Best), document.FormatValue(p.Score))
					}
				})
			return s.run(cmd.Context(), models.JobOptimize, func(ctx context.Context) (outcome, error) {
				res, err := loop.Run(ctx, names, values)
				if res == nil {
					return outcome{}, err
				}
				parts := make([]string, 0, len(res.Rounds))
				for _, round := range res.Rounds {
					if round.Error == "" {
						parts = append(parts, round.Symbol+"="+document.FormatValue(round.Best))
					}
				}
				return outcome{dir: res.Dir, report: res.Log, summary: strings.Join(parts, ", ")}, err
			})
		},
	}
	params.register(cmd)
	return cmd
}

func (c *cli) reportCmd() *cobra.Command {
	var (
		ext      string
		mismatch string
	)
	cmd := &cobra.Command{
		Use:   "report <dir>",
		Short: "Reduce an existing sweep directory and write its report and plots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := metrics.ParseMismatchPolicy(mismatch)
			if err != nil {
				return err
			}
			r, err := metrics.NewReducer(args[0], metrics.Options{Ext: ext, Mismatch: policy}).Reduce()
			if err != nil {
				return err
			}
			if err := metrics.WriteReport(cmd.OutOrStdout(), r); err != nil {
				return err
			}
			out, err := emit(r)
			if err != nil {
				return err
			}
			logger.Info("report written", "path", out.report)
			return nil
		},
	}
	cmd.Flags().StringVar(&ext, "ext", metrics.DefaultResultExt, "result file extension")
	cmd.Flags().StringVar(&mismatch, "mismatch", string(metrics.MismatchDrop), "filename mismatch policy (drop, fail)")
	return cmd
}
