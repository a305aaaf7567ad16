package cli

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"chessai/chess"
	"chessai/config"
	"chessai/game"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const SPIN = 11

func BestMove() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bestmove [fen]",
		Short: "Search a position for the best move",
		Args:  cobra.MaximumNArgs(1),
		Long: heredoc.Doc(`bestmove searches the given position, the standard starting
			position when no FEN is given, and prints the chosen move.

			The engine comes from the engine config file and can be
			overridden with the engine flags. MCTS engines also print
			the most visited root moves.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			fen := chess.StartFEN
			if len(args) == 1 {
				fen = args[0]
			}
			pos, err := chess.NewPosition(fen)
			if err != nil {
				return err
			}

			cfg, err := engineConfig(cmd)
			if err != nil {
				return err
			}
			engine, cleanup, err := config.Build(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			s := spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond)
			s.Suffix = " searching with " + engine.Name()
			s.Start() // Start the ~working~ spinner.
			d, err := engine.Search(cmd.Context(), pos)
			s.Stop() // Stop the ~working~ spinner.
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !d.HasMove() {
				fmt.Fprintf(out, "no move (%s)\n", pos.Outcome())
				return nil
			}
			score := fmt.Sprintf("%g", d.Score)
			if game.IsMateScore(int(d.Score)) {
				score = "mate"
			}
			fmt.Fprintf(out, "bestmove %s score %s\n", d.Move, score)

			top, _ := cmd.Flags().GetInt("top")
			for _, entry := range topVisits(d.Visits, top) {
				fmt.Fprintf(out, "  %-6s %d\n", entry.Key, entry.Value)
			}
			return nil
		},
	}

	engineFlags(cmd)
	cmd.Flags().Int("top", 5, "Number of root moves to list for MCTS engines")
	return cmd
}

// topVisits returns the n most visited moves, ties in move order.
func topVisits(visits map[game.Move]int, n int) []lo.Entry[string, int] {
	entries := lo.MapToSlice(visits, func(move game.Move, v int) lo.Entry[string, int] {
		return lo.Entry[string, int]{Key: move.String(), Value: v}
	})
	slices.SortFunc(entries, func(a, b lo.Entry[string, int]) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries[:max(0, min(n, len(entries)))]
}
