package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// fileCommands only touch the migrations directory.
var fileCommands = map[string]func(options) (string, error){
	"create": func(o options) (string, error) {
		if o.name == "" {
			return "", errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		return "created migration: " + path, err
	},
	"validate": func(o options) (string, error) {
		return "migration validation passed", migrate.ValidateDir(o.dir)
	},
}

// dbCommands run goose against the configured database. An empty dir uses
// the migrations compiled into the binary.
var dbCommands = map[string]func(context.Context, *sql.DB, options) error{
	"up":   func(ctx context.Context, conn *sql.DB, o options) error { return migrate.Run(ctx, conn, o.dir, "up") },
	"down": func(ctx context.Context, conn *sql.DB, o options) error { return migrate.Run(ctx, conn, o.dir, "down") },
	"status": func(ctx context.Context, conn *sql.DB, o options) error {
		return migrate.Run(ctx, conn, o.dir, "status")
	},
	"version": func(ctx context.Context, conn *sql.DB, o options) error {
		if o.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, conn, o.dir, o.version)
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate|sync")
	dir := flag.String("dir", "", "goose migrations directory (default: embedded for db commands, "+migrate.DefaultDir+" for create/validate)")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	opts := options{dir: *dir, name: *name, version: *version}

	if run, ok := fileCommands[*cmd]; ok {
		if opts.dir == "" {
			opts.dir = migrate.DefaultDir
		}
		msg, err := run(opts)
		exitOnError(*cmd, err)
		fmt.Println(msg)
		return
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	// sync builds the schema straight from the models; used for local SQLite.
	if *cmd == "sync" {
		exitOnError(*cmd, migrate.AutoMigrate(ctx, dbClient))
		fmt.Println("schema synced from models")
		return
	}

	run, ok := dbCommands[*cmd]
	if !ok {
		exitOnError(*cmd, fmt.Errorf("unknown -cmd value: %s", *cmd))
	}
	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")
	exitOnError(*cmd, run(ctx, sqlDB, opts))
}

func exitOnError(cmd string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "migrate %s failed: %v\n", cmd, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
