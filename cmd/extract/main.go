package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gcedu/attrition-pipeline/internal/config"
	"github.com/gcedu/attrition-pipeline/internal/database"
	"github.com/gcedu/attrition-pipeline/internal/dataset"
	"github.com/gcedu/attrition-pipeline/internal/logger"
	"github.com/gcedu/attrition-pipeline/internal/repository"
	"github.com/gcedu/attrition-pipeline/internal/service"
)

// parseEntities resolves a comma-separated entity list. Empty means all.
func parseEntities(raw string) ([]dataset.Entity, error) {
	if strings.TrimSpace(raw) == "" {
		return dataset.Entities, nil
	}
	var out []dataset.Entity
	for _, part := range strings.Split(raw, ",") {
		e, err := dataset.ParseEntity(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func main() {
	var only string
	flag.StringVar(&only, "only", "", "comma-separated entities to extract (default: all)")
	flag.Parse()

	entities, err := parseEntities(only)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, closer, err := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.SIS, cfg.MaxDBConns, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the SIS")
	}
	defer pool.Close()

	svc := service.NewExtractService(
		repository.NewEnrollmentRepository(pool),
		repository.NewHistoryRepository(pool),
		repository.NewCalendarRepository(pool),
		log,
	)
	if _, err := svc.Run(ctx, cfg.RawDataDir, entities, cfg.CohortFilter(time.Now())); err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}
}
