package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, firm_id, matter_id, client_id, amount, hourly_rate, status, issued_date, due_date,
	sent_at, paid_at, voided_at, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.FirmID, inv.MatterID, inv.ClientID, inv.Amount, inv.HourlyRate, string(inv.Status),
		inv.IssuedDate, inv.DueDate, inv.SentAt, inv.PaidAt, inv.VoidedAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLineItem persiste una línea (copia de un registro de tiempo).
func (r *InvoiceRepo) CreateLineItem(ctx context.Context, item *entity.InvoiceLineItem) error {
	query := `
		INSERT INTO invoice_line_items (invoice_id, position, time_entry_id, hours, description, work_date)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		item.InvoiceID, item.Position, item.TimeEntryID, item.Hours, item.Description, item.Date,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice line item: %w", err)
	}
	return nil
}

// GetByID obtiene la factura con sus líneas.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate obtiene la factura bloqueando la cabecera hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	if err != nil && isLockFailure(err) {
		return nil, fmt.Errorf("lock de factura no disponible: %w", err)
	}
	return inv, err
}

func (r *InvoiceRepo) get(ctx context.Context, query, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.lineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return inv, nil
}

// UpdateStatus persiste el estado y las marcas de auditoría.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET status = $2, sent_at = $3, paid_at = $4, voided_at = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, string(inv.Status), inv.SentAt, inv.PaidAt, inv.VoidedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByMatter lista las facturas del asunto (incluidas las anuladas) por emisión descendente.
func (r *InvoiceRepo) ListByMatter(ctx context.Context, firmID, matterID string) ([]*entity.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE firm_id = $1 AND matter_id = $2
		ORDER BY issued_date DESC, id DESC`
	rows, err := r.q.Query(ctx, query, firmID, matterID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	// Las líneas se cargan con las filas ya cerradas: una tx no admite dos queries abiertas.
	for _, inv := range list {
		if inv.LineItems, err = r.lineItems(ctx, inv.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *InvoiceRepo) lineItems(ctx context.Context, invoiceID string) ([]entity.InvoiceLineItem, error) {
	query := `
		SELECT invoice_id, position, time_entry_id, hours, description, work_date
		FROM invoice_line_items WHERE invoice_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice line items: %w", err)
	}
	defer rows.Close()
	items := []entity.InvoiceLineItem{}
	for rows.Next() {
		var li entity.InvoiceLineItem
		if err := rows.Scan(&li.InvoiceID, &li.Position, &li.TimeEntryID, &li.Hours, &li.Description, &li.Date); err != nil {
			return nil, fmt.Errorf("scan invoice line item: %w", err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status string
	if err := row.Scan(
		&inv.ID, &inv.FirmID, &inv.MatterID, &inv.ClientID, &inv.Amount, &inv.HourlyRate, &status,
		&inv.IssuedDate, &inv.DueDate, &inv.SentAt, &inv.PaidAt, &inv.VoidedAt, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	return &inv, nil
}
