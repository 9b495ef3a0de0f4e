package billing

import (
	"context"

	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

// LedgerTxRunner ejecuta una función dentro de una transacción que incluye registros de tiempo y facturas.
// Si fn retorna error (o el contexto se cancela antes del commit) no queda ningún efecto parcial.
type LedgerTxRunner interface {
	RunLedger(ctx context.Context, fn func(
		entryRepo repository.TimeEntryRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}
