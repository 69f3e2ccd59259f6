package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/config"
	"github.com/gcedu/attrition-pipeline/internal/database"
	"github.com/gcedu/attrition-pipeline/internal/logger"
	"github.com/gcedu/attrition-pipeline/internal/service"
)

var errHelp = errors.New("help provided")

// reportTTL is how long run reports stay in Redis.
const reportTTL = 7 * 24 * time.Hour

// parseWeek reads the required -w/-week_number option.
func parseWeek(args []string, out io.Writer) (int, error) {
	fs := flag.NewFlagSet("preprocess", flag.ContinueOnError)
	fs.SetOutput(out)
	var week int
	fs.IntVar(&week, "w", 0, "attendance cutoff week (required, >= 1)")
	fs.IntVar(&week, "week_number", 0, "alias of -w")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: preprocess -w WEEK")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, errHelp
		}
		return 0, err
	}
	if week < 1 {
		fs.Usage()
		return 0, fmt.Errorf("week number must be >= 1, got %d", week)
	}
	return week, nil
}

func main() {
	week, err := parseWeek(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(0)
		}
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

	registry, cleanup := newRegistry(ctx, cfg, log)
	defer cleanup()

	svc := service.NewFeatureService(cfg.RawDataDir, cfg.ProcessedDataDir, cfg.Policy, registry, log)
	if _, err := svc.Preprocess(ctx, week); err != nil {
		log.Fatal().Err(err).Int("week", week).Msg("Preprocess failed")
	}
}

// newRegistry connects the Redis run registry, or returns a no-op one when
// REDIS_URL is empty.
func newRegistry(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.RunRegistry, func()) {
	if cfg.RedisURL == "" {
		log.Debug().Msg("REDIS_URL not set, run registry disabled")
		return service.NoopRegistry{}, func() {}
	}
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	reg := service.NewRedisRegistry(rdb, cfg.RunTimeout+time.Minute, reportTTL, log)
	return reg, func() { _ = rdb.Close() }
}
