//go:build e2e

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/timeledger-api/pkg/config"
	"github.com/jhoicas/timeledger-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "timeledger",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "secret",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DBConfig{
		DatabaseURL: fmt.Sprintf("postgres://test:secret@%s:%s/timeledger?sslmode=disable", host, port.Port()),
	}
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	n, err := postgres.Migrate(ctx, pool, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = postgres.Migrate(ctx, pool, logger.Nop())
	require.NoError(t, err)
	assert.Zero(t, n, "las migraciones aplicadas no se repiten")
	return pool
}

func TestLedgerPostgres_FacturarAnularYConcurrencia(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)

	runner := postgres.NewTxRunner(pool, 2*time.Second)
	entryRepo := postgres.NewTimeEntryRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	entries := billing.NewTimeEntryStore(runner, entryRepo)
	lifecycle := billing.NewInvoiceLifecycleManager(runner, entries)
	policy := ledger.Policy{DefaultHourlyRate: decimal.RequireFromString("150.00"), DueDays: 30}
	uc := billing.NewLedgerUseCase(runner, entries, lifecycle, invoiceRepo, policy, logger.Nop())

	var ids []string
	for i, h := range []string{"1.5", "1.0", "2.0"} {
		e, err := entries.Create(ctx, "firm-1", dto.CreateTimeEntryRequest{
			MatterID: "matter-1", Hours: decimal.RequireFromString(h), WorkDate: fmt.Sprintf("2026-03-0%d", i+1),
		})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	inv, err := uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
		MatterID: "matter-1", ClientID: "client-1", TimeEntryIDs: ids[:2],
	})
	require.NoError(t, err)
	assert.Equal(t, "375.00", inv.Amount.StringFixed(2))

	stored, err := uc.GetInvoice(ctx, "firm-1", inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, ids[0], stored.LineItems[0].TimeEntryID)

	_, err = uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
		MatterID: "matter-1", ClientID: "client-1", TimeEntryIDs: []string{ids[2], ids[0]},
	})
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, domain.ConflictAlreadyBilled, ce.Reason)

	voided, err := uc.VoidInvoice(ctx, "firm-1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusVoid, voided.Status)

	unbilled, err := entries.ListUnbilled(ctx, "firm-1", "matter-1")
	require.NoError(t, err)
	assert.Len(t, unbilled, 3)

	// Dos facturas compiten por ids[0]: solo una puede ganar.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, other := range []string{ids[1], ids[2]} {
		wg.Add(1)
		go func(i int, other string) {
			defer wg.Done()
			_, errs[i] = uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
				MatterID: "matter-1", ClientID: "client-1", TimeEntryIDs: []string{ids[0], other},
			})
		}(i, other)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)

	history, err := uc.InvoiceHistory(ctx, "firm-1", "matter-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, entity.InvoiceStatusDraft, history[0].Status)
	assert.Equal(t, entity.InvoiceStatusVoid, history[1].Status)
}

func TestLedgerPostgres_ConservaPrecisionDeTarifaYHoras(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)

	runner := postgres.NewTxRunner(pool, 2*time.Second)
	entries := billing.NewTimeEntryStore(runner, postgres.NewTimeEntryRepository(pool))
	lifecycle := billing.NewInvoiceLifecycleManager(runner, entries)
	uc := billing.NewLedgerUseCase(runner, entries, lifecycle, postgres.NewInvoiceRepository(pool), ledger.DefaultPolicy(), logger.Nop())

	e1, err := entries.Create(ctx, "firm-1", dto.CreateTimeEntryRequest{
		MatterID: "matter-1", Hours: decimal.RequireFromString("2.5"), WorkDate: "2026-03-02",
	})
	require.NoError(t, err)
	rate := decimal.RequireFromString("150.125")
	inv, err := uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
		MatterID: "matter-1", ClientID: "client-1", TimeEntryIDs: []string{e1.ID}, HourlyRate: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, "375.31", inv.Amount.StringFixed(2))

	stored, err := uc.GetInvoice(ctx, "firm-1", inv.ID)
	require.NoError(t, err)
	assert.True(t, rate.Equal(stored.HourlyRate), "tarifa guardada %s", stored.HourlyRate)
	assert.True(t, ledger.Amount(ledger.LineItemsHours(stored), stored.HourlyRate).Equal(stored.Amount))

	// Tarifa válida por debajo del centavo y horas con más de 4 decimales.
	e2, err := entries.Create(ctx, "firm-1", dto.CreateTimeEntryRequest{
		MatterID: "matter-2", Hours: decimal.RequireFromString("1000.123456"), WorkDate: "2026-03-03",
	})
	require.NoError(t, err)
	got, err := entries.GetByID(ctx, "firm-1", e2.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.123456", got.Hours.String())

	tiny := decimal.RequireFromString("0.004")
	inv2, err := uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
		MatterID: "matter-2", ClientID: "client-1", TimeEntryIDs: []string{e2.ID}, HourlyRate: &tiny,
	})
	require.NoError(t, err)
	assert.Equal(t, "4.00", inv2.Amount.StringFixed(2))
	stored2, err := uc.GetInvoice(ctx, "firm-1", inv2.ID)
	require.NoError(t, err)
	assert.True(t, tiny.Equal(stored2.HourlyRate))
}
