package cli

import (
	"fmt"

	"chessai/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "chessai",
		Short: "Game-tree search engines for chess",
		Args:  cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// If --trace flag is provided, set logging level to Trace.
			if cmd.Flag("trace").Changed {
				zerolog.SetGlobalLevel(zerolog.TraceLevel)
			}
		},
	}

	// global flags
	root.PersistentFlags().BoolP("help", "h", false, "Show Help Information")
	root.PersistentFlags().BoolP("trace", "t", false, "Show Trace Information")
	root.PersistentFlags().StringP("config", "c", "", "Engine config file (default "+config.DefaultPath()+")")

	// Register the various commands.
	root.AddCommand(BestMove())
	root.AddCommand(Match())
	root.AddCommand(SelfPlay())
	root.AddCommand(Serve())
	root.AddCommand(Experiment())

	return root
}

// engineFlags registers the flags that override the engine config.
func engineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("engine", "e", "", "Search engine: alphabeta, rollout or policy")
	cmd.Flags().IntP("depth", "d", 0, "Alpha-beta search depth")
	cmd.Flags().IntP("simulations", "n", 0, "MCTS simulations per move")
	cmd.Flags().Duration("duration", 0, "MCTS time per move")
}

// engineConfig loads the engine config named by --config, or the default
// one, and applies the flag overrides.
func engineConfig(cmd *cobra.Command) (config.EngineConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg config.EngineConfig
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("depth") {
		cfg.Depth, _ = flags.GetInt("depth")
	}
	if flags.Changed("simulations") {
		cfg.Simulations, _ = flags.GetInt("simulations")
	}
	if flags.Changed("duration") {
		cfg.Duration, _ = flags.GetDuration("duration")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("engine config: %w", err)
	}
	return cfg, nil
}
