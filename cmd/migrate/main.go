package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/repository/postgres"
)

const usage = `usage: migrate <command>

commands:
  up        apply all pending migrations
  down [N]  roll back N migrations (default 1)
  version   print the current schema version`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	migrator, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer migrator.Close()

	switch flag.Arg(0) {
	case "up":
		err = migrator.Up()
	case "down":
		steps := 1
		if flag.NArg() > 1 {
			if steps, err = strconv.Atoi(flag.Arg(1)); err != nil || steps < 1 {
				log.Fatal().Str("steps", flag.Arg(1)).Msg("Steps must be a positive integer")
			}
		}
		err = migrator.Down(steps)
	case "version":
		version, dirty, verr := migrator.Version()
		if verr != nil {
			log.Fatal().Err(verr).Msg("Failed to read schema version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
		return
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Str("command", flag.Arg(0)).Msg("Migration complete")
}
