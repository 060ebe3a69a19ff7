package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsDir = "migrations"

// RunMigrations applies pending schema migrations embedded in the binary.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if db == nil {
		return errors.New("no database handle available for migrations")
	}

	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	logger.Info("applying migrations", zap.String("dir", migrationsDir))
	if err := goose.UpContext(runCtx, db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(runCtx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
	return nil
}
