package main

import (
	"errors"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/samirrijal/crashlens/internal/adapters/postgres"
	"github.com/samirrijal/crashlens/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("crashlens-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	m, err := postgres.Migrator(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", os.Args[1], err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("version: %v", err)
	}
	log.Printf("schema at version %d (dirty=%t)", version, dirty)
}
