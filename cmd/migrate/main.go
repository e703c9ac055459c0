package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/fulfillment-engine/pkg/config"
	"github.com/angelmondragon/fulfillment-engine/pkg/db"
	"github.com/angelmondragon/fulfillment-engine/pkg/logger"
	"github.com/angelmondragon/fulfillment-engine/pkg/migrate"
)

func main() {
	cmdName := flag.String("cmd", "up", "up|down|redo|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmdName, "dir": *dir})

	// filesystem-only commands run without config or a database
	switch *cmdName {
	case "create":
		path, err := migrate.CreateSQLMigration(*dir, *name)
		exitOn(ctx, logg, "create migration", err)
		fmt.Println(path)
		return
	case "validate":
		exitOn(ctx, logg, "validate migrations", migrate.ValidateDir(*dir))
		logg.Info(ctx, "migrations valid")
		return
	}

	command, err := migrate.ParseCommand(*cmdName)
	exitOn(ctx, logg, "parse command", err)
	var target int64
	if command == migrate.CommandVersion {
		target, err = migrate.ParseVersion(*version)
		exitOn(ctx, logg, "parse version", err)
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, "load config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "unwrap sql database", err)

	if err := migrate.Run(ctx, sqlDB, *dir, command, target); err != nil {
		logg.Error(ctx, "migration failed", err)
		dbClient.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step, err)
	os.Exit(1)
}
