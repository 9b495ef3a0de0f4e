package ledger

import (
	"time"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
)

// transitions tabla de transiciones permitidas. paid y void son terminales.
var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.InvoiceStatusDraft: {entity.InvoiceStatusSent, entity.InvoiceStatusVoid},
	entity.InvoiceStatusSent:  {entity.InvoiceStatusPaid, entity.InvoiceStatusVoid},
}

// CanTransition indica si from → to está en la tabla.
func CanTransition(from, to entity.InvoiceStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminal(s entity.InvoiceStatus) bool {
	return len(transitions[s]) == 0
}

// Transition devuelve una copia de la factura con el nuevo estado y su marca de tiempo.
// El resto de campos no cambia. La liberación de registros al anular la hace la capa de aplicación.
func Transition(inv *entity.Invoice, to entity.InvoiceStatus, now time.Time) (*entity.Invoice, error) {
	if !CanTransition(inv.Status, to) {
		return nil, &domain.IllegalTransitionError{
			InvoiceID: inv.ID,
			From:      string(inv.Status),
			To:        string(to),
			Terminal:  IsTerminal(inv.Status),
		}
	}
	out := inv.Clone()
	out.Status = to
	out.UpdatedAt = now
	switch to {
	case entity.InvoiceStatusSent:
		out.SentAt = &now
	case entity.InvoiceStatusPaid:
		out.PaidAt = &now
	case entity.InvoiceStatusVoid:
		out.VoidedAt = &now
	}
	return out, nil
}
