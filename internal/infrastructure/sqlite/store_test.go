package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
	"github.com/jhoicas/timeledger-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	n, err := s.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	return s
}

func TestOpen_RequiereRuta(t *testing.T) {
	_, err := Open("  ", 0)
	assert.Error(t, err)
}

func TestMigrate_Idempotente(t *testing.T) {
	s := openTempStore(t)
	n, err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExtractUpMigration(t *testing.T) {
	assert.Equal(t, "\nCREATE t;\n", extractUpMigration("-- +migrate Up\nCREATE t;\n-- +migrate Down\nDROP t;"))
	assert.Equal(t, "CREATE t;", extractUpMigration("CREATE t;"))
}

func TestEntryRepo_RoundTripYDuplicado(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	repo := s.TimeEntries()

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	e := &entity.TimeEntry{
		ID: "te-1", FirmID: "firm-1", MatterID: "matter-1",
		Hours:       decimal.RequireFromString("1.25"),
		WorkDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Description: "revisión de contrato",
		CreatedAt:   now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, e))
	assert.ErrorIs(t, repo.Create(ctx, e), domain.ErrDuplicate)

	got, err := repo.GetByID(ctx, "te-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, e.Hours.Equal(got.Hours))
	assert.True(t, e.WorkDate.Equal(got.WorkDate))
	assert.Equal(t, e.Description, got.Description)
	assert.False(t, got.Billed)
	assert.True(t, now.Equal(got.CreatedAt))

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repo.Delete(ctx, "nope"), domain.ErrNotFound)
}

func TestRunLedger_RollbackAnteError(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)
	now := time.Now()

	boom := errors.New("boom")
	err := s.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, _ repository.InvoiceRepository) error {
		require.NoError(t, entryRepo.Create(ctx, &entity.TimeEntry{
			ID: "te-1", FirmID: "firm-1", MatterID: "m", Hours: decimal.NewFromInt(1),
			WorkDate: now, CreatedAt: now, UpdatedAt: now,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.TimeEntries().GetByID(ctx, "te-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerSQLite_FacturarYAnular(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	entries := billing.NewTimeEntryStore(s, s.TimeEntries())
	lifecycle := billing.NewInvoiceLifecycleManager(s, entries)
	policy := ledger.Policy{DefaultHourlyRate: decimal.RequireFromString("150.00"), DueDays: 30}
	uc := billing.NewLedgerUseCase(s, entries, lifecycle, s.Invoices(), policy, logger.Nop())

	e1, err := entries.Create(ctx, "firm-1", dto.CreateTimeEntryRequest{
		MatterID: "matter-1", Hours: decimal.RequireFromString("1.5"), WorkDate: "2026-03-02", Description: "audiencia",
	})
	require.NoError(t, err)
	e2, err := entries.Create(ctx, "firm-1", dto.CreateTimeEntryRequest{
		MatterID: "matter-1", Hours: decimal.RequireFromString("1.0"), WorkDate: "2026-03-03",
	})
	require.NoError(t, err)

	inv, err := uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
		MatterID: "matter-1", ClientID: "client-1", TimeEntryIDs: []string{e1.ID, e2.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "375.00", inv.Amount.StringFixed(2))

	stored, err := uc.GetInvoice(ctx, "firm-1", inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.LineItems, 2)
	assert.Equal(t, "audiencia", stored.LineItems[0].Description)
	assert.True(t, inv.Amount.Equal(stored.Amount))
	assert.Equal(t, entity.InvoiceStatusDraft, stored.Status)

	_, err = uc.CreateInvoiceFromEntries(ctx, "firm-1", dto.CreateInvoiceRequest{
		MatterID: "matter-1", ClientID: "client-1", TimeEntryIDs: []string{e2.ID},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = entries.Delete(ctx, "firm-1", e1.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = uc.ChangeStatus(ctx, "firm-1", inv.ID, entity.InvoiceStatusSent)
	require.NoError(t, err)
	voided, err := uc.VoidInvoice(ctx, "firm-1", inv.ID)
	require.NoError(t, err)
	require.NotNil(t, voided.VoidedAt)

	unbilled, err := entries.ListUnbilled(ctx, "firm-1", "matter-1")
	require.NoError(t, err)
	require.Len(t, unbilled, 2)
	assert.Equal(t, e2.ID, unbilled[0].ID)

	history, err := uc.InvoiceHistory(ctx, "firm-1", "matter-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.InvoiceStatusVoid, history[0].Status)
	assert.NotNil(t, history[0].SentAt)
	assert.Len(t, history[0].LineItems, 2)
}

func TestLedgerSQLite_ConservaPrecisionDeTarifaYHoras(t *testing.T) {
	ctx := context.Background()
	s := openTempStore(t)

	entries := billing.NewTimeEntryStore(s, s.TimeEntries())
	lifecycle := billing.NewInvoiceLifecycleManager(s, entries)
	uc := billing.NewLedgerUseCase(s, entries, lifecycle, s.Invoices(), ledger.DefaultPolicy(), logger.Nop())

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
	assert.True(t, rate.Equal(stored.HourlyRate))
	assert.True(t, ledger.Amount(ledger.LineItemsHours(stored), stored.HourlyRate).Equal(stored.Amount))

	e2, err := entries.Create(ctx, "firm-1", dto.CreateTimeEntryRequest{
		MatterID: "matter-2", Hours: decimal.RequireFromString("1000.123456"), WorkDate: "2026-03-03",
	})
	require.NoError(t, err)
	got, err := entries.GetByID(ctx, "firm-1", e2.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.123456", got.Hours.String())
}
