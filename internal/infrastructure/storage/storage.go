// Package storage elige el backend de persistencia del ledger según DB_DRIVER.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/timeledger-api/pkg/config"
	"github.com/jhoicas/timeledger-api/pkg/logger"
)

// Backend agrupa el runner transaccional y los repos fuera de tx de un driver.
type Backend struct {
	Driver      string
	TxRunner    billing.LedgerTxRunner
	TimeEntries repository.TimeEntryRepository
	Invoices    repository.InvoiceRepository

	migrate func(ctx context.Context) (int, error)
	close   func()
}

// Open conecta con el driver configurado. No aplica migraciones.
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Backend{
			Driver:      cfg.Driver,
			TxRunner:    postgres.NewTxRunner(pool, cfg.LockTimeout),
			TimeEntries: postgres.NewTimeEntryRepository(pool),
			Invoices:    postgres.NewInvoiceRepository(pool),
			migrate: func(ctx context.Context) (int, error) {
				return postgres.Migrate(ctx, pool, log.Component("migrate"))
			},
			close: pool.Close,
		}, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath, cfg.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &Backend{
			Driver:      cfg.Driver,
			TxRunner:    s,
			TimeEntries: s.TimeEntries(),
			Invoices:    s.Invoices(),
			migrate:     s.Migrate,
			close: func() {
				if err := s.Close(); err != nil {
					log.Warn().Err(err).Msg("error al cerrar SQLite")
				}
			},
		}, nil

	case config.DriverMemory:
		s := memory.New()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &Backend{
			Driver:      cfg.Driver,
			TxRunner:    s,
			TimeEntries: s.TimeEntries(),
			Invoices:    s.Invoices(),
			migrate:     func(context.Context) (int, error) { return 0, nil },
			close:       func() {},
		}, nil
	}
	return nil, fmt.Errorf("DB_DRIVER no soportado: %q", cfg.Driver)
}

// Migrate aplica el esquema pendiente; en memoria no hace nada.
func (b *Backend) Migrate(ctx context.Context) (int, error) {
	return b.migrate(ctx)
}

// Close libera conexiones.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}
