package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"docdesk/internal/app"
	"docdesk/internal/config"
	"docdesk/internal/repository/sqlstore"
)

const usage = "Usage: migrate [up|down|steps N|force V|version]"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("migrate: ignoring .env: %v", err)
	}
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run(cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Cache.Driver == app.DriverMemory {
		log.Println("migrate: memory cache driver has no schema, nothing to do")
		return nil
	}

	m, err := sqlstore.NewMigrator(&cfg.Cache)
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = ignoreNoChange(m.Up())
	case "down":
		err = ignoreNoChange(m.Down())
	case "steps":
		n, perr := intArg(args)
		if perr != nil {
			return perr
		}
		err = ignoreNoChange(m.Steps(n))
	case "force":
		v, perr := intArg(args)
		if perr != nil {
			return perr
		}
		err = m.Force(v)
	case "version":
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading version: %w", err)
	}
	fmt.Printf("%s store at version %d (dirty: %v)\n", cfg.Cache.Driver, version, dirty)
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing numeric argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid numeric argument: %w", err)
	}
	return n, nil
}
