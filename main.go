package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"chessai/cli"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := chessai(ctx); err != nil {
		log.Fatal().Err(err).Msg("chessai")
	}
}

func chessai(ctx context.Context) error {
	root := cli.Root()
	root.SetArgs(os.Args[1:])
	return root.ExecuteContext(ctx)
}
