package main

import (
	"os"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
