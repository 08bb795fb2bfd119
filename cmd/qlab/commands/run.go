package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		file  string
		shots int
		png   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate an OpenQASM 2.0 circuit",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			out, err := run.RunSimulation(cmd.Context(), string(src), shotsOrDefault(shots))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Job %s on %s, %d shots in %s\n\n", out.JobID, out.Backend, out.Shots, out.Elapsed)
			printCounts(w, out.Counts)
			return writePNG(png, out.Counts, filepath.Base(file))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "OpenQASM 2.0 file")
	cmd.Flags().IntVar(&shots, "shots", 0, "shots (default from QLAB_DEFAULT_SHOTS)")
	cmd.Flags().StringVar(&png, "png", "", "write a histogram PNG to this path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
