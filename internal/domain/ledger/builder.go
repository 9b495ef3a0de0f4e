package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BuildInput datos ya validados para construir una factura.
// Entries deben estar sin facturar y pertenecer a MatterID; el builder no lo verifica.
type BuildInput struct {
	FirmID   string
	MatterID string
	ClientID string
	Entries  []*entity.TimeEntry
	Rate     decimal.Decimal
	Policy   Policy
	Now      time.Time
}

// BuildInvoice construye una factura en estado draft. No persiste ni modifica los registros.
//
// amount = round2(sum(horas) * tarifa), redondeado una vez sobre el total.
// Las líneas son copias de los registros en el orden recibido.
func BuildInvoice(in BuildInput) (*entity.Invoice, error) {
	if len(in.Entries) == 0 {
		return nil, domain.ErrEmptySelection
	}
	if err := ValidateRate(in.Rate); err != nil {
		return nil, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	inv := &entity.Invoice{
		ID:         NewInvoiceID(),
		FirmID:     in.FirmID,
		MatterID:   in.MatterID,
		ClientID:   in.ClientID,
		HourlyRate: in.Rate,
		Status:     entity.InvoiceStatusDraft,
		IssuedDate: now,
		DueDate:    now.AddDate(0, 0, in.Policy.dueDays()),
		LineItems:  make([]entity.InvoiceLineItem, 0, len(in.Entries)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, e := range in.Entries {
		inv.LineItems = append(inv.LineItems, entity.InvoiceLineItem{
			InvoiceID:   inv.ID,
			Position:    i + 1,
			TimeEntryID: e.ID,
			Hours:       e.Hours,
			Description: e.Description,
			Date:        e.WorkDate,
		})
	}
	inv.Amount = Amount(LineItemsHours(inv), in.Rate)
	return inv, nil
}

// LineItemsHours suma las horas de las líneas de una factura.
func LineItemsHours(inv *entity.Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, li := range inv.LineItems {
		total = total.Add(li.Hours)
	}
	return total
}

// NewInvoiceID genera un UUIDv7 (ordenable por tiempo de creación).
func NewInvoiceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
