package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado del ciclo de vida de una factura de honorarios.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft" // Estado inicial, recién construida
	InvoiceStatusSent  InvoiceStatus = "sent"  // Enviada al cliente
	InvoiceStatusPaid  InvoiceStatus = "paid"  // Pagada (terminal)
	InvoiceStatusVoid  InvoiceStatus = "void"  // Anulada (terminal); libera sus registros de tiempo
)

// ParseInvoiceStatus valida un estado recibido desde el exterior.
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	switch st := InvoiceStatus(s); st {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusVoid:
		return st, true
	}
	return "", false
}

// Invoice representa una factura construida a partir de registros de tiempo.
// Es una foto financiera inmutable salvo por Status y sus marcas de auditoría.
type Invoice struct {
	ID         string
	FirmID     string
	MatterID   string
	ClientID   string
	Amount     decimal.Decimal
	HourlyRate decimal.Decimal // tarifa usada al construir la factura
	Status     InvoiceStatus
	IssuedDate time.Time
	DueDate    time.Time
	LineItems  []InvoiceLineItem
	SentAt     *time.Time
	PaidAt     *time.Time
	VoidedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InvoiceLineItem copia de un TimeEntry en el momento de facturar (no es referencia viva).
type InvoiceLineItem struct {
	InvoiceID   string
	Position    int
	TimeEntryID string
	Hours       decimal.Decimal
	Description string
	Date        time.Time
}

// TimeEntryIDs devuelve los IDs de registros de tiempo en el orden de las líneas.
func (i *Invoice) TimeEntryIDs() []string {
	ids := make([]string, 0, len(i.LineItems))
	for _, li := range i.LineItems {
		ids = append(ids, li.TimeEntryID)
	}
	return ids
}

// Clone devuelve una copia profunda (líneas y punteros de fecha incluidos).
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	c := *i
	c.LineItems = append([]InvoiceLineItem(nil), i.LineItems...)
	c.SentAt = cloneTime(i.SentAt)
	c.PaidAt = cloneTime(i.PaidAt)
	c.VoidedAt = cloneTime(i.VoidedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
