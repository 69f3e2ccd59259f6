package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gcedu/attrition-pipeline/internal/config"
	"github.com/gcedu/attrition-pipeline/internal/database"
	"github.com/gcedu/attrition-pipeline/internal/logger"
	"github.com/gcedu/attrition-pipeline/internal/repository"
	"github.com/gcedu/attrition-pipeline/internal/service"
)

func main() {
	opts := service.SeedOptions{}
	flag.IntVar(&opts.Students, "students", 200, "number of synthetic students")
	flag.IntVar(&opts.FirstYear, "from", 2017, "first calendar year")
	flag.IntVar(&opts.LastYear, "to", time.Now().Year(), "last calendar year")
	flag.IntVar(&opts.AttendanceWeeks, "weeks", 6, "attendance weeks recorded per section")
	flag.Uint64Var(&opts.Seed, "seed", 1, "random seed")
	flag.Parse()

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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.SIS, cfg.MaxDBConns, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	svc := service.NewSeedService(repository.NewMirrorRepository(pool), log)
	if _, err := svc.Seed(ctx, opts); err != nil {
		log.Fatal().Err(err).Msg("Seed failed")
	}
}
