package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *memory.Store, id string) {
	t.Helper()
	require.NoError(t, s.TimeEntries().Create(context.Background(), &entity.TimeEntry{
		ID: id, FirmID: "firm-1", MatterID: "matter-1",
		Hours: decimal.NewFromInt(1), WorkDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func TestRunLedger_RollbackDescartaCambios(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seed(t, s, "e1")

	boom := errors.New("boom")
	err := s.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, invoiceRepo repository.InvoiceRepository) error {
		require.NoError(t, invoiceRepo.Create(ctx, &entity.Invoice{ID: "inv-1", FirmID: "firm-1", MatterID: "matter-1"}))
		n, err := entryRepo.SetBilled(ctx, []string{"e1"}, "inv-1")
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		return boom
	})
	require.ErrorIs(t, err, boom)

	inv, err := s.Invoices().GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.Nil(t, inv, "la factura no debe existir tras el rollback")

	e, err := s.TimeEntries().GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, e.Billed)
	assert.Empty(t, e.InvoiceID)
}

func TestRunLedger_ContextoCanceladoNoPublica(t *testing.T) {
	s := memory.New()
	seed(t, s, "e1")

	ctx, cancel := context.WithCancel(context.Background())
	err := s.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, _ repository.InvoiceRepository) error {
		_, err := entryRepo.SetBilled(ctx, []string{"e1"}, "inv-1")
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)

	e, err := s.TimeEntries().GetByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.False(t, e.Billed)
}

func TestEntryRepo_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seed(t, s, "e1")
	seed(t, s, "e2")
	repo := s.TimeEntries()

	n, err := repo.SetBilled(ctx, []string{"e1"}, "inv-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.SetBilled(ctx, []string{"e1", "e2"}, "inv-2")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "e1 ya estaba facturado")

	n, err = repo.ClearBilled(ctx, []string{"e1", "e2"}, "inv-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "solo e1 pertenece a inv-1")
}

func TestEntryRepo_CreateDuplicado(t *testing.T) {
	s := memory.New()
	seed(t, s, "e1")
	err := s.TimeEntries().Create(context.Background(), &entity.TimeEntry{ID: "e1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestEntryRepo_ListUnbilledOrdenPorFecha(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	repo := s.TimeEntries()
	for i, day := range []int{3, 10, 1} {
		require.NoError(t, repo.Create(ctx, &entity.TimeEntry{
			ID: string(rune('a' + i)), FirmID: "f", MatterID: "m",
			Hours: decimal.NewFromInt(1), WorkDate: time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.TimeEntry{ID: "otro", FirmID: "f", MatterID: "m2", Hours: decimal.NewFromInt(1)}))

	list, err := repo.ListUnbilled(ctx, "f", "m")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
}
