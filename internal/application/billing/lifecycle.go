package billing

import (
	"context"
	"time"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

// InvoiceLifecycleManager aplica la máquina de estados sobre facturas persistidas
// y la reconcilia con los registros de tiempo (anular libera las horas).
type InvoiceLifecycleManager struct {
	txRunner LedgerTxRunner
	entries  *TimeEntryStore
	now      func() time.Time
}

// NewInvoiceLifecycleManager construye el manager.
func NewInvoiceLifecycleManager(txRunner LedgerTxRunner, entries *TimeEntryStore) *InvoiceLifecycleManager {
	return &InvoiceLifecycleManager{txRunner: txRunner, entries: entries, now: time.Now}
}

// Transition cambia el estado de la factura en su propia transacción.
func (m *InvoiceLifecycleManager) Transition(ctx context.Context, firmID, invoiceID string, to entity.InvoiceStatus) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := m.txRunner.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, invoiceRepo repository.InvoiceRepository) error {
		inv, err := m.TransitionInTx(ctx, entryRepo, invoiceRepo, firmID, invoiceID, to)
		if err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, domain.Transient("cambiar estado de factura", err)
	}
	return out, nil
}

// TransitionInTx bloquea la factura, valida la transición y la persiste con los repos del caller.
// Al pasar a void libera (markUnbilled) todos los registros de sus líneas en la misma transacción.
func (m *InvoiceLifecycleManager) TransitionInTx(
	ctx context.Context,
	entryRepo repository.TimeEntryRepository,
	invoiceRepo repository.InvoiceRepository,
	firmID, invoiceID string,
	to entity.InvoiceStatus,
) (*entity.Invoice, error) {
	inv, err := invoiceRepo.GetForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.FirmID != firmID {
		return nil, domain.ErrForbidden
	}

	updated, err := ledger.Transition(inv, to, m.now())
	if err != nil {
		return nil, err
	}
	if to == entity.InvoiceStatusVoid {
		if err := m.entries.MarkUnbilledInTx(ctx, entryRepo, inv.TimeEntryIDs(), inv.ID); err != nil {
			return nil, err
		}
	}
	if err := invoiceRepo.UpdateStatus(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
