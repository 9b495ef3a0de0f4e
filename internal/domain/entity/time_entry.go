package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry representa horas trabajadas sobre un asunto (matter).
// Billed e InvoiceID solo los modifica el ledger al facturar o anular.
type TimeEntry struct {
	ID          string
	FirmID      string
	MatterID    string
	Hours       decimal.Decimal
	WorkDate    time.Time
	Description string
	Billed      bool
	InvoiceID   string // factura activa que reclama el registro; vacío si no está facturado
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone devuelve una copia independiente del registro.
func (e *TimeEntry) Clone() *TimeEntry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
