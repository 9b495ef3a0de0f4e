package dto

import "github.com/shopspring/decimal"

// CreateTimeEntryRequest body para POST /api/time-entries.
// ID es opcional: el sistema de gestión de casos puede enviar su propio identificador.
type CreateTimeEntryRequest struct {
	ID          string          `json:"id,omitempty"`
	MatterID    string          `json:"matter_id"`
	Hours       decimal.Decimal `json:"hours"`
	WorkDate    string          `json:"work_date"` // YYYY-MM-DD
	Description string          `json:"description,omitempty"`
}

// UpdateTimeEntryRequest body para PUT /api/time-entries/:id (solo registros sin facturar).
type UpdateTimeEntryRequest struct {
	Hours       decimal.Decimal `json:"hours"`
	WorkDate    string          `json:"work_date"`
	Description string          `json:"description,omitempty"`
}

// TimeEntryResponse registro de tiempo en respuestas.
type TimeEntryResponse struct {
	ID          string          `json:"id"`
	MatterID    string          `json:"matter_id"`
	Hours       decimal.Decimal `json:"hours"`
	WorkDate    string          `json:"work_date"`
	Description string          `json:"description,omitempty"`
	Billed      bool            `json:"billed"`
	InvoiceID   string          `json:"invoice_id,omitempty"`
}

// TimeEntryListResponse listado de registros.
type TimeEntryListResponse struct {
	Total   int                 `json:"total"`
	Entries []TimeEntryResponse `json:"entries"`
}

// CreateInvoiceRequest body para POST /api/invoices.
// HourlyRate es opcional; si va vacío se usa la tarifa configurada de la firma.
type CreateInvoiceRequest struct {
	MatterID     string           `json:"matter_id"`
	ClientID     string           `json:"client_id"`
	TimeEntryIDs []string         `json:"time_entry_ids"`
	HourlyRate   *decimal.Decimal `json:"hourly_rate,omitempty"`
}

// ChangeInvoiceStatusRequest body para POST /api/invoices/:id/status.
type ChangeInvoiceStatusRequest struct {
	Status string `json:"status"` // sent | paid | void
}

// InvoiceResponse factura con sus líneas.
type InvoiceResponse struct {
	ID         string                    `json:"id"`
	MatterID   string                    `json:"matter_id"`
	ClientID   string                    `json:"client_id"`
	Amount     decimal.Decimal           `json:"amount"`
	Hours      decimal.Decimal           `json:"hours"`
	HourlyRate decimal.Decimal           `json:"hourly_rate"`
	Status     string                    `json:"status"`
	IssuedDate string                    `json:"issued_date"`
	DueDate    string                    `json:"due_date"`
	SentAt     string                    `json:"sent_at,omitempty"`
	PaidAt     string                    `json:"paid_at,omitempty"`
	VoidedAt   string                    `json:"voided_at,omitempty"`
	LineItems  []InvoiceLineItemResponse `json:"line_items"`
}

// InvoiceLineItemResponse línea (copia del registro de tiempo al facturar).
type InvoiceLineItemResponse struct {
	TimeEntryID string          `json:"time_entry_id"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"`
}

// InvoiceListResponse historial de facturas de un asunto.
type InvoiceListResponse struct {
	Total    int               `json:"total"`
	Invoices []InvoiceResponse `json:"invoices"`
}

// UnbilledTotalResponse horas pendientes de facturar de un asunto y su valor.
type UnbilledTotalResponse struct {
	MatterID   string          `json:"matter_id"`
	Entries    int             `json:"entries"`
	Hours      decimal.Decimal `json:"hours"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	Total      decimal.Decimal `json:"total"`
}
