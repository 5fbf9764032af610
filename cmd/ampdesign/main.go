package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/dvirhilu/NMR-Preamplifier/internal/commands"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Cancel long sweeps and figure output on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := commands.NewRootCommand(afero.NewOsFs(), commands.NewDesignService)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("ampdesign failed")
		stop()
		os.Exit(1)
	}
}
