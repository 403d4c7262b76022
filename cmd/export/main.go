package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"ideabox/internal/config"
	"ideabox/internal/database"
	"ideabox/internal/export"
	"ideabox/internal/logging"
	"ideabox/internal/repositories"
)

func main() {
	dir := flag.String("dir", ".", "directory for the export files")
	prefix := flag.String("prefix", "ideas_export", "file name prefix")
	flag.Parse()

	cfg, err := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := run(cfg, *dir, *prefix); err != nil {
		log.Error().Err(err).Msg("Export failed")
		os.Exit(1)
	}
}

func run(cfg config.Config, dir, prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter := export.NewExporter(repositories.NewIdeaRepository(db), os.Stdout)
	_, err = exporter.Run(ctx, dir, prefix, time.Now())
	return err
}
