package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Migrations rely on postgres enum types and partial unique indexes.
const dialect = "postgres"

// Command is a goose operation that needs a live database.
type Command string

const (
	CommandUp      Command = "up"
	CommandDown    Command = "down"
	CommandRedo    Command = "redo"
	CommandStatus  Command = "status"
	CommandVersion Command = "version"
)

func ParseCommand(value string) (Command, error) {
	switch cmd := Command(value); cmd {
	case CommandUp, CommandDown, CommandRedo, CommandStatus, CommandVersion:
		return cmd, nil
	}
	return "", fmt.Errorf("unknown migrate command %q", value)
}

// ParseVersion reads a YYYYMMDDHHMMSS migration version.
func ParseVersion(value string) (int64, error) {
	if len(value) != 14 {
		return 0, fmt.Errorf("version %q must be 14 digits", value)
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("version %q must be 14 digits", value)
	}
	return v, nil
}

// Run executes cmd against db. target is only read by CommandVersion, which
// moves the schema up or down until it sits at that version.
func Run(ctx context.Context, db *sql.DB, dir string, cmd Command, target int64) error {
	if db == nil {
		return errors.New("migrate: database required")
	}
	if dir == "" {
		return errors.New("migrate: migrations dir required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	var err error
	switch cmd {
	case CommandUp:
		err = goose.UpContext(ctx, db, dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, dir)
	case CommandRedo:
		err = goose.RedoContext(ctx, db, dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, dir)
	case CommandVersion:
		err = toVersion(ctx, db, dir, target)
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", cmd, err)
	}
	return nil
}

func toVersion(ctx context.Context, db *sql.DB, dir string, target int64) error {
	if target <= 0 {
		return errors.New("target version required")
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case current < target:
		return goose.UpToContext(ctx, db, dir, target)
	case current > target:
		return goose.DownToContext(ctx, db, dir, target)
	}
	return nil
}
