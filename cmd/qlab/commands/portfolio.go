package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"qlab/internal/portfolio"
)

func portfolioCmd() *cobra.Command {
	sc := portfolio.DefaultScenario()
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Optimize a random portfolio with QAOA and compare with brute force",
		RunE: func(cmd *cobra.Command, args []string) error {
			// --seed drives both the price data and the initial angles here
			if cmd.Flags().Changed("seed") {
				sc.Seed = seed
				sc.Options.Seed = seed
			}
			log.Info().
				Int("assets", sc.Assets).
				Int("budget", sc.Budget).
				Int("reps", sc.Options.Reps).
				Msg("Solving portfolio")

			rep, err := portfolio.Run(cmd.Context(), sc)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Tickers:  %s\n", strings.Join(rep.Tickers, " "))
			fmt.Fprintf(w, "Returns:  %s\n", formatFloats(rep.Mu))
			printResult(w, "QAOA", rep.QAOA.Result)
			fmt.Fprintf(w, "          probability %.4f, %d evaluations (%s)\n",
				rep.QAOA.Probability, rep.QAOA.Evaluations, rep.QAOA.Status)
			printResult(w, "Exact", *rep.Exact)
			fmt.Fprintf(w, "Optimal:  %t\n", rep.Optimal)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&sc.Assets, "assets", sc.Assets, "number of assets")
	f.Float64Var(&sc.RiskFactor, "risk", sc.RiskFactor, "risk factor q")
	f.IntVar(&sc.Budget, "budget", sc.Budget, "number of assets to select")
	f.IntVar(&sc.Options.Reps, "reps", sc.Options.Reps, "QAOA layers")
	f.IntVar(&sc.Options.MaxIter, "maxiter", sc.Options.MaxIter, "optimizer evaluation budget")
	return cmd
}

func printResult(w io.Writer, label string, r portfolio.Result) {
	fmt.Fprintf(w, "%-9s %v %s objective %.6f return %.6f risk %.6f\n",
		label+":", r.Selection, strings.Join(r.Assets, ","), r.Objective, r.Return, r.Risk)
}

func formatFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.5f", x)
	}
	return strings.Join(parts, " ")
}
