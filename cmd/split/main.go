package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gcedu/attrition-pipeline/internal/config"
	"github.com/gcedu/attrition-pipeline/internal/logger"
	"github.com/gcedu/attrition-pipeline/internal/model"
	"github.com/gcedu/attrition-pipeline/internal/service"
)

var errHelp = errors.New("help provided")

type splitArgs struct {
	week int
	// prev and curr are empty when the flag was not given.
	prev, curr model.TermCode
}

func parseArgs(args []string, out io.Writer) (splitArgs, error) {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		a          splitArgs
		prev, curr string
	)
	fs.IntVar(&a.week, "w", 0, "week of the cleaned table to split (required)")
	fs.StringVar(&prev, "prev", "", "validation term code (default PREV_TERM)")
	fs.StringVar(&curr, "curr", "", "test term code (default CURR_TERM)")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: split -w WEEK [-prev TERM] [-curr TERM]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return a, errHelp
		}
		return a, err
	}
	if a.week < 1 {
		fs.Usage()
		return a, fmt.Errorf("week number must be >= 1, got %d", a.week)
	}

	var err error
	if prev != "" {
		if a.prev, err = model.ParseTermCode(prev); err != nil {
			return a, fmt.Errorf("-prev: %w", err)
		}
	}
	if curr != "" {
		if a.curr, err = model.ParseTermCode(curr); err != nil {
			return a, fmt.Errorf("-curr: %w", err)
		}
	}
	return a, nil
}

func main() {
	args, err := parseArgs(os.Args[1:], os.Stderr)
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

	prevTerm, currTerm := cfg.PrevTerm, cfg.CurrTerm
	if args.prev != "" {
		prevTerm = args.prev
	}
	if args.curr != "" {
		currTerm = args.curr
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	svc := service.NewSplitService(cfg.ProcessedDataDir, log)
	if _, err := svc.Split(ctx, args.week, prevTerm, currTerm); err != nil {
		log.Fatal().Err(err).Msg("Split failed")
	}
}
