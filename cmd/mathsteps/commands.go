package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/factor"
	"github.com/florisdf/mathsteps/internal/config"
	"github.com/florisdf/mathsteps/polynom"
	"github.com/florisdf/mathsteps/simplify"
	"github.com/florisdf/mathsteps/step"
)

func newIsolateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "isolate [expression...]",
		Short: "Pull common factors out of each expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := make([]*step.Step, 0, len(args))
			for _, arg := range args {
				n, err := expr.Parse(arg)
				if err != nil {
					return fmt.Errorf("parse %q: %w", arg, err)
				}
				steps = append(steps, a.pipeline.IsolateCommonFactors(n))
			}
			return a.printSteps(cmd.OutOrStdout(), steps)
		},
	}
}

func newSimplifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "simplify [expression]",
		Short: "Simplify an expression to canonical polynomial form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := expr.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse %q: %w", args[0], err)
			}
			s := simplify.Step(a.pipeline.Simplifier(), step.SimplifyArithmetic, n)
			return a.printSteps(cmd.OutOrStdout(), []*step.Step{s})
		},
	}
}

func newDivideCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "divide [expression] [divisor]",
		Short: "Divide every term by a product of factors it contains",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := expr.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse %q: %w", args[0], err)
			}
			d, err := expr.Parse(args[1])
			if err != nil {
				return fmt.Errorf("parse %q: %w", args[1], err)
			}
			q, err := polynom.DivideBySimpleFactor(n, d)
			if err != nil {
				return err
			}
			a.log.Debug("divided", zap.String("expr", n.String()), zap.String("divisor", d.String()))
			return a.print(cmd.OutOrStdout(), q.String(), map[string]string{
				"expr": n.String(), "divisor": d.String(), "quotient": q.String(),
			})
		},
	}
}

func newPrimesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "primes [integer...]",
		Short: "Print the prime factors of each integer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type primes struct {
				N       int64   `json:"n" yaml:"n"`
				Factors []int64 `json:"factors" yaml:"factors"`
			}
			out := make([]primes, 0, len(args))
			lines := make([]string, 0, len(args))
			for _, arg := range args {
				v, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("not an integer: %q", arg)
				}
				ps := factor.Primes(v)
				out = append(out, primes{N: v, Factors: ps})
				strs := make([]string, len(ps))
				for i, p := range ps {
					strs[i] = strconv.FormatInt(p, 10)
				}
				lines = append(lines, fmt.Sprintf("%d: %s", v, strings.Join(strs, " ")))
			}
			return a.print(cmd.OutOrStdout(), strings.Join(lines, "\n"), out)
		},
	}
}

// ============================================================
// Output
// ============================================================

// print writes text in text mode and v encoded otherwise.
func (a *app) print(w io.Writer, text string, v interface{}) error {
	switch a.cfg.Output {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, text)
		return err
	}
}

func (a *app) printSteps(w io.Writer, steps []*step.Step) error {
	var b strings.Builder
	for i, s := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		writeStep(&b, s, 0)
	}
	var v interface{} = steps
	if len(steps) == 1 {
		v = steps[0]
	}
	return a.print(w, strings.TrimSuffix(b.String(), "\n"), v)
}

// writeStep prints s and its substeps as an indented outline.
func writeStep(b *strings.Builder, s *step.Step, depth int) {
	indent := strings.Repeat("  ", depth)
	if !s.HasChanged() {
		fmt.Fprintf(b, "%s%s: %s\n", indent, s.Change, s.Before)
		return
	}
	fmt.Fprintf(b, "%s%s: %s\n", indent, s.Change, s)
	for _, sub := range s.Substeps {
		writeStep(b, sub, depth+1)
	}
}
