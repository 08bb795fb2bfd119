package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"qlab/internal/config"
	"qlab/internal/runner"
	"qlab/internal/sim"
	"qlab/pkg/logger"
)

var (
	cfg     *config.Config
	log     zerolog.Logger
	backend *sim.Simulator
	run     *runner.Runner

	envFile  string
	logLevel string
	pretty   bool
	seed     int64
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "qlab",
		Short:        "Grover search planner, circuit simulator and QAOA portfolio demo",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("pretty") {
				cfg.LogPretty = pretty
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}

			log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			logger.SetGlobalLogger(log)

			backend = sim.New(cfg.MaxQubits, cfg.Seed)
			run = runner.New(backend, log)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load if present")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")
	root.PersistentFlags().Int64Var(&seed, "seed", 0, "simulator seed (0 seeds from the clock)")

	root.AddCommand(searchCmd(), runCmd(), portfolioCmd(), serveCmd(), buildCmd())
	return root
}
