package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftInvoice() *entity.Invoice {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &entity.Invoice{
		ID:         "inv-1",
		MatterID:   "matter-1",
		Amount:     decimal.NewFromInt(375),
		HourlyRate: decimal.NewFromInt(150),
		Status:     entity.InvoiceStatusDraft,
		IssuedDate: now,
		DueDate:    now.AddDate(0, 0, 30),
		LineItems:  []entity.InvoiceLineItem{{TimeEntryID: "e1", Hours: decimal.NewFromInt(1)}},
	}
}

func TestCanTransition_Tabla(t *testing.T) {
	all := []entity.InvoiceStatus{
		entity.InvoiceStatusDraft, entity.InvoiceStatusSent,
		entity.InvoiceStatusPaid, entity.InvoiceStatusVoid,
	}
	allowed := map[[2]entity.InvoiceStatus]bool{
		{entity.InvoiceStatusDraft, entity.InvoiceStatusSent}: true,
		{entity.InvoiceStatusSent, entity.InvoiceStatusPaid}:  true,
		{entity.InvoiceStatusDraft, entity.InvoiceStatusVoid}: true,
		{entity.InvoiceStatusSent, entity.InvoiceStatusVoid}:  true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]entity.InvoiceStatus{from, to}], ledger.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, ledger.IsTerminal(entity.InvoiceStatusPaid))
	assert.True(t, ledger.IsTerminal(entity.InvoiceStatusVoid))
	assert.False(t, ledger.IsTerminal(entity.InvoiceStatusDraft))
}

func TestTransition_Escenario2(t *testing.T) {
	now := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	inv := draftInvoice()

	sent, err := ledger.Transition(inv, entity.InvoiceStatusSent, now)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status, "la factura original no se modifica")

	paid, err := ledger.Transition(sent, entity.InvoiceStatusPaid, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, inv.ID, paid.ID)
	assert.True(t, inv.Amount.Equal(paid.Amount))
	assert.Equal(t, inv.LineItems, paid.LineItems)

	_, err = ledger.Transition(paid, entity.InvoiceStatusSent, now)
	var ite *domain.IllegalTransitionError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, "paid", ite.From)
	assert.Equal(t, "sent", ite.To)
	assert.True(t, ite.Terminal)
	assert.Contains(t, err.Error(), "estado terminal")
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestTransition_VoidEsTerminal(t *testing.T) {
	now := time.Now()
	void, err := ledger.Transition(draftInvoice(), entity.InvoiceStatusVoid, now)
	require.NoError(t, err)
	require.NotNil(t, void.VoidedAt)

	for _, to := range []entity.InvoiceStatus{entity.InvoiceStatusDraft, entity.InvoiceStatusSent, entity.InvoiceStatusPaid, entity.InvoiceStatusVoid} {
		_, err := ledger.Transition(void, to, now)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition, "void -> %s", to)
	}
}

func TestTransition_DraftNoPuedePagarse(t *testing.T) {
	_, err := ledger.Transition(draftInvoice(), entity.InvoiceStatusPaid, time.Now())
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	var ite *domain.IllegalTransitionError
	require.True(t, errors.As(err, &ite))
	assert.False(t, ite.Terminal, "draft aún puede enviarse o anularse")
}
