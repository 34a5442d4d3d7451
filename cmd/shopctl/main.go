// Command shopctl drives the shop API from a terminal: list products, show
// the cart and checkout view, pick delivery options and track shipments.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cmd := newCommand(os.Stdout, logger, dialShop(logger))
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatal().Err(err).Msg("shopctl")
	}
}
