package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		qubits int
		target string
		shots  int
		png    string
	)
	cmd := &cobra.Command{
		Use:     "search",
		Short:   "Plan and run a Grover search",
		Example: "  qlab search --qubits 3 --target 101 --png search.png",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := run.Search(cmd.Context(), qubits, target, shotsOrDefault(shots))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Target:      %s (%d qubits)\n", out.Target, out.N)
			fmt.Fprintf(w, "Iterations:  %d\n", out.Iterations)
			fmt.Fprintf(w, "Blocks:      %s\n", strings.Join(out.Blocks, " "))
			fmt.Fprintf(w, "Predicted:   %.4f\n", out.SuccessProbability)
			fmt.Fprintf(w, "Found:       %s (success=%t)\n\n", out.Found, out.Success)
			printCounts(w, out.Counts)

			title := fmt.Sprintf("Grover search for |%s>", out.Target)
			return writePNG(png, out.Counts, title)
		},
	}
	cmd.Flags().IntVarP(&qubits, "qubits", "n", 2, "number of qubits")
	cmd.Flags().StringVarP(&target, "target", "t", "11", "marked bit string, one character per qubit")
	cmd.Flags().IntVar(&shots, "shots", 0, "shots (default from QLAB_DEFAULT_SHOTS)")
	cmd.Flags().StringVar(&png, "png", "", "write a histogram PNG to this path")
	return cmd
}
