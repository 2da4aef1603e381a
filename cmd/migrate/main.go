package main

import (
	"errors"
	"flag"
	"os"

	migrateV4 "github.com/golang-migrate/migrate/v4"

	"github.com/yourusername/learnhub-api/internal/config"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
	"github.com/yourusername/learnhub-api/pkg/database"
)

// Утилита для ручного управления миграциями, в том числе для очистки dirty-состояния:
//
//	migrate -cmd up
//	migrate -cmd down -steps 1
//	migrate -cmd force -version 1
//	migrate -cmd version
func main() {
	log := logger.Component("migrate")

	cmd := flag.String("cmd", "up", "up | down | force | version")
	steps := flag.Int("steps", 0, "number of migrations for up/down (0 = all for up, 1 for down)")
	version := flag.Int("version", -1, "version for force")
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := database.NewPostgresDB(cfg.Database, false)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		log.WithError(err).Fatal("failed to get sql.DB")
	}
	defer sqlDB.Close()

	m, err := database.NewMigrator(sqlDB, cfg.Database.MigrationsPath)
	if err != nil {
		log.WithError(err).Fatal("failed to create migrator")
	}

	switch *cmd {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		n := *steps
		if n <= 0 {
			n = 1
		}
		err = m.Steps(-n)
	case "force":
		if *version < 0 {
			log.Fatal("-version is required for force")
		}
		err = m.Force(*version)
	case "version":
	default:
		log.Fatalf("unknown command %q", *cmd)
	}

	if errors.Is(err, migrateV4.ErrNoChange) {
		log.Info("no change")
		err = nil
	}
	if err != nil {
		log.WithError(err).Fatalf("%s failed", *cmd)
	}

	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrateV4.ErrNilVersion):
		log.Info("no migrations applied")
	case err != nil:
		log.WithError(err).Fatal("failed to read version")
	default:
		log.WithField("dirty", dirty).Infof("schema version %d", v)
	}
}
