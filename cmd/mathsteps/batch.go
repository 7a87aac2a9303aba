package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/florisdf/mathsteps/expr"
	"github.com/florisdf/mathsteps/step"
)

func newBatchCmd(a *app) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Isolate common factors for every line of a file (or stdin)",
		Long: `Reads one expression per line, skipping blank lines and lines starting with #,
and runs the pipeline on them concurrently. Results keep the input order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			lines, err := readExpressions(in)
			if err != nil {
				return err
			}
			steps, err := a.isolateAll(cmd, lines, jobs)
			if err != nil {
				return err
			}
			return a.printSteps(cmd.OutOrStdout(), steps)
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of expressions processed at once")
	return cmd
}

type exprLine struct {
	num  int
	text string
}

func readExpressions(r io.Reader) ([]exprLine, error) {
	var out []exprLine
	sc := bufio.NewScanner(r)
	for num := 1; sc.Scan(); num++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		out = append(out, exprLine{num: num, text: text})
	}
	return out, sc.Err()
}

// isolateAll runs the pipeline on every line with at most jobs at once.
// The first parse error cancels the lines not yet started.
func (a *app) isolateAll(cmd *cobra.Command, lines []exprLine, jobs int) ([]*step.Step, error) {
	if jobs < 1 {
		jobs = 1
	}
	steps := make([]*step.Step, len(lines))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, line := range lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := expr.Parse(line.text)
			if err != nil {
				return fmt.Errorf("line %d: %w", line.num, err)
			}
			steps[i] = a.pipeline.IsolateCommonFactors(n)
			a.log.Debug("isolated", zap.Int("line", line.num), zap.Bool("changed", steps[i].HasChanged()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return steps, nil
}
