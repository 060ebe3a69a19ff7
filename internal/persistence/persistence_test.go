package persistence

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/config"
)

func TestNewPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pg != nil {
		t.Fatalf("expected nil postgres without dsn")
	}
	if pg.DB() != nil {
		t.Fatalf("nil postgres must expose nil db")
	}
	if err := pg.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil postgres")
	}
	pg.Close()
}

func TestNewPostgresRejectsBadDSN(t *testing.T) {
	if _, err := NewPostgres(context.Background(), config.PostgresConfig{DSN: "::not a dsn::"}, zap.NewNop()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRedisDisabled(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	if r != nil {
		t.Fatalf("expected nil redis without address")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil redis")
	}
	r.Close()
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrationFS, migrationsDir+"/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("no migrations embedded")
	}
	content, err := fs.ReadFile(migrationFS, names[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sql := string(content)
	for _, want := range []string{"-- +goose Up", "-- +goose Down", "email         TEXT NOT NULL UNIQUE"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("migration %s missing %q", names[0], want)
		}
	}
}

func TestRunMigrationsRequiresDB(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error without database")
	}
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pg, err := NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pg.Close()

	if err := RunMigrations(ctx, pg.DB(), zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := pg.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var exists bool
	if err := pg.DB().QueryRowContext(ctx, `SELECT to_regclass('public.users') IS NOT NULL`).Scan(&exists); err != nil || !exists {
		t.Fatalf("users table missing: %v", err)
	}
}
