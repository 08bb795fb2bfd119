package commands

import (
	"github.com/spf13/cobra"

	"qlab/internal/tui"
	"qlab/pkg/logger"
)

func buildCmd() *cobra.Command {
	var shots int
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Open the interactive circuit builder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(backend, shotsOrDefault(shots), logger.Component(log, "tui"))
		},
	}
	cmd.Flags().IntVar(&shots, "shots", 0, "shots per run (default from QLAB_DEFAULT_SHOTS)")
	return cmd
}
