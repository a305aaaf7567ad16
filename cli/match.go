package cli

import (
	"fmt"
	"strings"

	"chessai/chess"
	"chessai/config"
	"chessai/match"
	"chessai/meta"
	"chessai/searcher/agent"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

func Match() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Play a game between two engines",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`match plays a full game. White uses the engine config
			(with the engine flags applied). Black uses the config given
			with --opponent, or the same engine when none is given.

			Either side can also be an agent server, given by its URL
			with --white-url or --black-url.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			fen, _ := cmd.Flags().GetString("fen")
			pos, err := chess.NewPosition(fen)
			if err != nil {
				return err
			}

			whiteConfig, err := engineConfig(cmd)
			if err != nil {
				return err
			}
			blackConfig := whiteConfig
			if path, _ := cmd.Flags().GetString("opponent"); path != "" {
				if blackConfig, err = config.Load(path); err != nil {
					return err
				}
			}

			white, cleanupWhite, err := matchAgent(cmd, "white-url", whiteConfig)
			if err != nil {
				return err
			}
			defer cleanupWhite()
			black, cleanupBlack, err := matchAgent(cmd, "black-url", blackConfig)
			if err != nil {
				return err
			}
			defer cleanupBlack()

			plies, _ := cmd.Flags().GetInt("max-plies")
			result, err := match.New(pos, white, black, match.WithMaxPlies(plies)).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join(result.Moves, " "))
			fmt.Fprintf(out, "result %s after %d plies in %s\n", result.Outcome, result.Game.TotalMoves, result.Game.Duration)
			return nil
		},
	}

	engineFlags(cmd)
	cmd.Flags().String("opponent", "", "Engine config file for Black")
	cmd.Flags().String("fen", chess.StartFEN, "Starting position")
	cmd.Flags().Int("max-plies", meta.MaxPlies, "Stop the game after this many plies")
	cmd.Flags().String("white-url", "", "Agent server playing White")
	cmd.Flags().String("black-url", "", "Agent server playing Black")
	return cmd
}

// matchAgent returns the remote agent named by the url flag, or a local
// agent over the configured engine.
func matchAgent(cmd *cobra.Command, urlFlag string, cfg config.EngineConfig) (agent.Agent, func() error, error) {
	if url, _ := cmd.Flags().GetString(urlFlag); url != "" {
		return agent.NewRemoteAgent(url), func() error { return nil }, nil
	}
	engine, cleanup, err := config.Build(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	return agent.NewEvaluationAgent(engine), cleanup, nil
}
