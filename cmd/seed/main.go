package main

import (
	"flag"

	"rccafe/internal/config"
	"rccafe/internal/logger"
	"rccafe/internal/seed"
	"rccafe/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	path := flag.String("file", "cmd/seed/seed.yaml", "seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	config.Set(cfg)
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	f, err := seed.Load(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("loading seed")
	}

	if err := storage.ConnectDatabase(cfg.DB); err != nil {
		log.Fatal().Err(err).Msg("connecting database")
	}
	if err := storage.Migrate(storage.DB); err != nil {
		log.Fatal().Err(err).Msg("migrating database")
	}

	res, err := seed.Apply(storage.DB, f)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding")
	}
	log.Info().Int("users", res.Users).Int("tracks", res.Tracks).Int("games", res.Games).Msg("seed complete")
}
