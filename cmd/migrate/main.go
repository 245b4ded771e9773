package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/edufeedback/backend/internal/config"
	"github.com/edufeedback/backend/internal/database"
	"github.com/edufeedback/backend/internal/logger"
	"github.com/golang-migrate/migrate/v4"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  up              apply every pending migration
  down            revert every migration (asks first unless -yes)
  steps <n>       apply n migrations, or revert when n is negative
  version         print the current schema version
  force <version> mark the schema at version without running anything

Flags:
`

func main() {
	dir := flag.String("path", "", "directory of migration files (default: embedded)")
	yes := flag.Bool("yes", false, "skip the confirmation for down")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Component(logger.Setup(cfg.LogLevel, cfg.LogFormat), "migrate")

	m, err := database.NewMigrator(cfg.DatabaseURL, *dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Migrator failed to initialize")
	}
	defer m.Close()
	m.Log = database.MigrateLogger(log)

	switch args[0] {
	case "up":
		err = ignoreNoChange(m.Up())
	case "down":
		if !*yes && !confirm("Revert every migration and drop all portal data? [y/N] ") {
			log.Info().Msg("Aborted")
			return
		}
		err = ignoreNoChange(m.Down())
	case "steps":
		var n int
		if n, err = intArg(args, "steps"); err == nil {
			err = ignoreNoChange(m.Steps(n))
		}
	case "version":
		// reported below
	case "force":
		var v int
		if v, err = intArg(args, "force"); err == nil {
			err = m.Force(v)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Migration failed")
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("No migrations applied")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to read schema version")
	default:
		log.Info().Uint("version", version).Bool("dirty", dirty).Str("command", args[0]).Msg("Done")
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[1], err)
	}
	return n, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	var answer string
	_, _ = fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}
