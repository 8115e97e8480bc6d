package main

import (
	"flag"
	"fmt"
	"os"

	"mindmetric/internal/config"
	"mindmetric/internal/database"
	"mindmetric/internal/logger"

	"go.uber.org/zap"
)

func main() {
	source := flag.String("source", "file://database/migrations", "migration source URL")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := database.RunMigrations(*source, cfg.GetDSN()); err != nil {
		logger.Get().Fatal("migration failed", zap.Error(err))
	}
}
