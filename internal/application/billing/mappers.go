package billing

import (
	"time"

	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
)

// ToTimeEntryResponse adapta la entidad a la respuesta HTTP.
func ToTimeEntryResponse(e *entity.TimeEntry) dto.TimeEntryResponse {
	return dto.TimeEntryResponse{
		ID:          e.ID,
		MatterID:    e.MatterID,
		Hours:       e.Hours,
		WorkDate:    e.WorkDate.Format(dateLayout),
		Description: e.Description,
		Billed:      e.Billed,
		InvoiceID:   e.InvoiceID,
	}
}

// ToTimeEntryList adapta un listado de registros.
func ToTimeEntryList(list []*entity.TimeEntry) dto.TimeEntryListResponse {
	out := dto.TimeEntryListResponse{Total: len(list), Entries: make([]dto.TimeEntryResponse, 0, len(list))}
	for _, e := range list {
		out.Entries = append(out.Entries, ToTimeEntryResponse(e))
	}
	return out
}

// ToInvoiceResponse adapta la factura (con líneas) a la respuesta HTTP.
func ToInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:         inv.ID,
		MatterID:   inv.MatterID,
		ClientID:   inv.ClientID,
		Amount:     inv.Amount,
		Hours:      ledger.LineItemsHours(inv),
		HourlyRate: inv.HourlyRate,
		Status:     string(inv.Status),
		IssuedDate: inv.IssuedDate.Format(dateLayout),
		DueDate:    inv.DueDate.Format(dateLayout),
		SentAt:     formatStamp(inv.SentAt),
		PaidAt:     formatStamp(inv.PaidAt),
		VoidedAt:   formatStamp(inv.VoidedAt),
		LineItems:  make([]dto.InvoiceLineItemResponse, 0, len(inv.LineItems)),
	}
	for _, li := range inv.LineItems {
		resp.LineItems = append(resp.LineItems, dto.InvoiceLineItemResponse{
			TimeEntryID: li.TimeEntryID,
			Hours:       li.Hours,
			Description: li.Description,
			Date:        li.Date.Format(dateLayout),
		})
	}
	return resp
}

// ToInvoiceList adapta el historial de facturas.
func ToInvoiceList(list []*entity.Invoice) dto.InvoiceListResponse {
	out := dto.InvoiceListResponse{Total: len(list), Invoices: make([]dto.InvoiceResponse, 0, len(list))}
	for _, inv := range list {
		out.Invoices = append(out.Invoices, ToInvoiceResponse(inv))
	}
	return out
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
