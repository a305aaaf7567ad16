package cli

import (
	"fmt"
	"slices"

	"chessai/experiments"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func Experiment() *cobra.Command {
	names := lo.Keys(experiments.Experiments)
	slices.Sort(names)

	cmd := &cobra.Command{
		Use:       "experiment name",
		Short:     "Run a predefined engine experiment",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		Long: heredoc.Doc(`experiment plays the match ups of a predefined experiment
			and stores the agent configs, game records and per-move search
			metrics as CSV files under the output directory.

			engines     alpha-beta, rollout and policy search against a baseline
			depth       alpha-beta depths against depth 1
			cutoff      rollout cutoffs against the default cutoff
			throughput  each MCTS engine against itself`),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			games, _ := cmd.Flags().GetInt("games")

			e := experiments.Experiments[args[0]]()
			if cmd.Flags().Changed("games") {
				e.Games = games
			}
			dir, err := e.Run(cmd.Context(), out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "experiments", "Output directory")
	cmd.Flags().Int("games", experiments.NumGames, "Games per match up")
	return cmd
}
