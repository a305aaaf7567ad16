package cli

import (
	"chessai/config"
	"chessai/meta"
	"chessai/searcher/agent"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

func Serve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured engine over HTTP",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`serve starts an agent server for the configured engine.

			POST /findmove with {"fen": "..."} answers with the chosen
			move, its score and the root visit counts of MCTS engines.`),
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

			port, _ := cmd.Flags().GetString("port")
			return agent.StartAgentServer(cmd.Context(), port, agent.NewEvaluationAgent(engine))
		},
	}

	engineFlags(cmd)
	cmd.Flags().StringP("port", "p", meta.ServerPort, "Port to listen on")
	return cmd
}
