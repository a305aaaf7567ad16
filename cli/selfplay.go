package cli

import (
	"fmt"
	"time"

	"chessai/config"
	"chessai/meta"
	"chessai/selfplay"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func SelfPlay() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selfplay",
		Short: "Generate training data from engine self-play",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`selfplay lets the configured engine play against itself,
			sampling moves from its visit counts, and writes one row per
			position to a parquet file: the FEN, the visit distribution
			over the legal moves and the final result of the game.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engineConfig(cmd)
			if err != nil {
				return err
			}
			engine, cleanup, err := config.Build(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			flags := cmd.Flags()
			games, _ := flags.GetInt("games")
			temperature, _ := flags.GetFloat64("temperature")
			seed, _ := flags.GetUint64("seed")
			plies, _ := flags.GetInt("max-plies")
			out, _ := flags.GetString("out")
			if !flags.Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}

			rows, err := selfplay.Run(cmd.Context(), engine, selfplay.Config{
				Games:       games,
				Temperature: temperature,
				Seed:        seed,
				MaxPlies:    plies,
			})
			if err != nil {
				return err
			}
			if err := selfplay.WriteRows(out, rows); err != nil {
				return err
			}
			log.Info().Msgf("wrote %d rows to %s", len(rows), out)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	engineFlags(cmd)
	cmd.Flags().Int("games", 1, "Number of games to play")
	cmd.Flags().Float64("temperature", 1, "Visit count temperature, 0 plays the most visited move")
	cmd.Flags().Uint64("seed", 0, "Seed for move sampling")
	cmd.Flags().Int("max-plies", meta.MaxPlies, "Stop each game after this many plies")
	cmd.Flags().StringP("out", "o", "selfplay.parquet", "Output parquet file")
	return cmd
}
