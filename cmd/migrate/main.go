// Command migrate manages the schema of the development SIS mirror that seed
// and the e2e suite write into. The pipeline itself only reads from the SIS,
// so nothing here is meant for the production database; down and reset drop
// every mirror table and require -confirm.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/config"
	"github.com/gcedu/attrition-pipeline/internal/logger"
)

var (
	errHelp        = errors.New("help provided")
	errNeedConfirm = errors.New("refusing to drop the mirror without -confirm")
)

type options struct {
	path    string
	dsn     string
	confirm bool
	command string
	// version is the argument of force.
	version int
}

func parseOptions(args []string, out io.Writer) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	var o options
	fs.StringVar(&o.path, "path", "migrations", "directory of the mirror migrations")
	fs.StringVar(&o.dsn, "dsn", "", "mirror database URL (default built from SIS_*)")
	fs.BoolVar(&o.confirm, "confirm", false, "allow down and reset")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: migrate [flags] up|down|reset|version|force VERSION")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return o, errHelp
		}
		return o, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return o, errors.New("missing command")
	}
	o.command = rest[0]
	switch o.command {
	case "up", "version":
	case "down", "reset":
		if !o.confirm {
			return o, errNeedConfirm
		}
	case "force":
		if len(rest) < 2 {
			return o, errors.New("force requires a version")
		}
		v, err := strconv.Atoi(rest[1])
		if err != nil {
			return o, fmt.Errorf("invalid version %q: %w", rest[1], err)
		}
		o.version = v
	default:
		fs.Usage()
		return o, fmt.Errorf("unknown command %q", o.command)
	}
	return o, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func run(m *migrate.Migrate, o options, log zerolog.Logger) error {
	switch o.command {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("up: %w", err)
		}
	case "down":
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("down: %w", err)
		}
	case "reset":
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("reset down: %w", err)
		}
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("reset up: %w", err)
		}
	case "force":
		if err := m.Force(o.version); err != nil {
			return fmt.Errorf("force: %w", err)
		}
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info().Str("command", o.command).Msg("Mirror schema is empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}
	log.Info().Str("command", o.command).Uint("version", version).Bool("dirty", dirty).Msg("Mirror schema")
	return nil
}

func main() {
	o, err := parseOptions(os.Args[1:], os.Stderr)
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

	dsn := o.dsn
	if dsn == "" {
		dsn = cfg.SIS.DSN()
	}
	m, err := migrate.New("file://"+o.path, dsn)
	if err != nil {
		log.Fatal().Err(err).Str("path", o.path).Msg("Failed to initialize migrations")
	}
	defer m.Close()

	if err := run(m, o, log); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
