package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, firm_id, matter_id, client_id, amount, hourly_rate, status, issued_date, due_date,
	sent_at, paid_at, voided_at, created_at, updated_at`

// InvoiceRepo implementa InvoiceRepository sobre *sql.DB o *sql.Tx.
type InvoiceRepo struct {
	q dbtx
}

// Create persiste la cabecera.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.FirmID, inv.MatterID, inv.ClientID, inv.Amount.String(), inv.HourlyRate.String(),
		string(inv.Status), toMillis(inv.IssuedDate), toMillis(inv.DueDate),
		nullMillis(inv.SentAt), nullMillis(inv.PaidAt), nullMillis(inv.VoidedAt),
		toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLineItem persiste una línea.
func (r *InvoiceRepo) CreateLineItem(ctx context.Context, li *entity.InvoiceLineItem) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO invoice_line_items (invoice_id, position, time_entry_id, hours, description, work_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		li.InvoiceID, li.Position, li.TimeEntryID, li.Hours.String(), li.Description, li.Date.Format(dateLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert invoice line item: %w", err)
	}
	return nil
}

// GetByID devuelve la factura con sus líneas, o (nil, nil).
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv.LineItems, err = r.lineItems(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetForUpdate igual que GetByID; el lock de escritura ya lo tiene la tx.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

// UpdateStatus persiste estado y marcas de auditoría.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, inv *entity.Invoice) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE invoices SET status = ?, sent_at = ?, paid_at = ?, voided_at = ?, updated_at = ? WHERE id = ?`,
		string(inv.Status), nullMillis(inv.SentAt), nullMillis(inv.PaidAt), nullMillis(inv.VoidedAt),
		toMillis(inv.UpdatedAt), inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireAffected(res)
}

// ListByMatter lista las facturas del asunto por emisión descendente.
func (r *InvoiceRepo) ListByMatter(ctx context.Context, firmID, matterID string) ([]*entity.Invoice, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE firm_id = ? AND matter_id = ?
		ORDER BY issued_date DESC, id DESC`, firmID, matterID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	// Con una sola conexión las líneas se leen después de cerrar el cursor.
	for _, inv := range list {
		if inv.LineItems, err = r.lineItems(ctx, inv.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *InvoiceRepo) lineItems(ctx context.Context, invoiceID string) ([]entity.InvoiceLineItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT invoice_id, position, time_entry_id, hours, description, work_date
		FROM invoice_line_items WHERE invoice_id = ? ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice line items: %w", err)
	}
	defer rows.Close()
	items := []entity.InvoiceLineItem{}
	for rows.Next() {
		var (
			li   entity.InvoiceLineItem
			date string
		)
		if err := rows.Scan(&li.InvoiceID, &li.Position, &li.TimeEntryID, &li.Hours, &li.Description, &date); err != nil {
			return nil, fmt.Errorf("scan invoice line item: %w", err)
		}
		if li.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("line item date %q: %w", date, err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		inv                          entity.Invoice
		status                       string
		issued, due, created, update int64
		sent, paid, voided           sql.NullInt64
	)
	if err := row.Scan(
		&inv.ID, &inv.FirmID, &inv.MatterID, &inv.ClientID, &inv.Amount, &inv.HourlyRate, &status,
		&issued, &due, &sent, &paid, &voided, &created, &update,
	); err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	inv.IssuedDate = fromMillis(issued)
	inv.DueDate = fromMillis(due)
	inv.SentAt, inv.PaidAt, inv.VoidedAt = timePtr(sent), timePtr(paid), timePtr(voided)
	inv.CreatedAt = fromMillis(created)
	inv.UpdatedAt = fromMillis(update)
	return &inv, nil
}
