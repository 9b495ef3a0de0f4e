package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/timeledger-api/pkg/logger"
)

// Migrate aplica las migraciones embebidas pendientes, cada una en su propia transacción.
// Devuelve cuántas se aplicaron.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.Nop()
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    BIGINT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	applied := 0
	for _, f := range files {
		ver, err := parseVersion(path.Base(f))
		if err != nil {
			return applied, fmt.Errorf("migración %q: %w", f, err)
		}
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, ver).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %d: %w", ver, err)
		}
		if exists {
			log.Debug().Int("version", ver).Str("file", f).Msg("migración ya aplicada")
			continue
		}
		body, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			return applied, err
		}
		log.Info().Int("version", ver).Str("file", f).Msg("aplicando migración")
		if err := applyMigration(ctx, pool, ver, string(body)); err != nil {
			return applied, fmt.Errorf("aplicar %s: %w", f, err)
		}
		applied++
	}
	return applied, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, version int, body string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, body); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// parseVersion extrae el prefijo numérico de nombres como 0001_descripcion.sql.
func parseVersion(name string) (int, error) {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, fmt.Errorf("falta el prefijo numérico")
	}
	return strconv.Atoi(name[:i])
}
