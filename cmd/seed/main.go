package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cofound/internal/config"
	"cofound/internal/database/migration"
	dbpostgres "cofound/internal/database/postgres"
	"cofound/internal/logger"
	"cofound/internal/seeder"
)

func main() {
	migrate := flag.Bool("migrate", true, "apply pending migrations before seeding")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zlog, err := logger.New(cfg.App.Environment, cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if *migrate {
		if err := (migration.Runner{}).Up(ctx, db.SQLDB()); err != nil {
			zlog.Fatal("migrate", zap.Error(err))
		}
	}

	runner := seeder.Runner{Seeders: seeder.Defaults(), Log: zlog}
	if err := runner.Run(ctx, db); err != nil {
		zlog.Fatal("seed", zap.Error(err))
	}
	zlog.Info("seed complete")
}
