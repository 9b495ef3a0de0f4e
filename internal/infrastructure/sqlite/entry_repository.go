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

var _ repository.TimeEntryRepository = (*EntryRepo)(nil)

const (
	entryColumns = `id, firm_id, matter_id, hours, work_date, description, billed, invoice_id, created_at, updated_at`
	dateLayout   = "2006-01-02"
)

// EntryRepo implementa TimeEntryRepository sobre *sql.DB o *sql.Tx.
type EntryRepo struct {
	q dbtx
}

// Create persiste un registro nuevo.
func (r *EntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO time_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.FirmID, e.MatterID, e.Hours.String(), e.WorkDate.Format(dateLayout), e.Description,
		e.Billed, nullString(e.InvoiceID), toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert time entry: %w", err)
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *EntryRepo) GetByID(ctx context.Context, id string) (*entity.TimeEntry, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

// Update actualiza horas, fecha y descripción.
func (r *EntryRepo) Update(ctx context.Context, e *entity.TimeEntry) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE time_entries SET hours = ?, work_date = ?, description = ?, updated_at = ? WHERE id = ?`,
		e.Hours.String(), e.WorkDate.Format(dateLayout), e.Description, toMillis(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update time entry: %w", err)
	}
	return requireAffected(res)
}

// Delete elimina un registro.
func (r *EntryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	return requireAffected(res)
}

// ListUnbilled lista los registros sin facturar del asunto por fecha descendente.
func (r *EntryRepo) ListUnbilled(ctx context.Context, firmID, matterID string) ([]*entity.TimeEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM time_entries
		WHERE firm_id = ? AND matter_id = ? AND billed = 0
		ORDER BY work_date DESC, created_at DESC, id DESC`, firmID, matterID)
	if err != nil {
		return nil, fmt.Errorf("list unbilled time entries: %w", err)
	}
	return collectEntries(rows)
}

// GetForUpdate lee las filas dentro de la tx. El lock lo da BEGIN IMMEDIATE.
func (r *EntryRepo) GetForUpdate(ctx context.Context, ids []string) ([]*entity.TimeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := placeholders(ids)
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id IN (`+in+`) ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("lock time entries: %w", err)
	}
	return collectEntries(rows)
}

// SetBilled marca facturados solo los registros aún libres.
func (r *EntryRepo) SetBilled(ctx context.Context, ids []string, invoiceID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := placeholders(ids)
	args = append([]any{invoiceID, toMillis(time.Now())}, args...)
	res, err := r.q.ExecContext(ctx,
		`UPDATE time_entries SET billed = 1, invoice_id = ?, updated_at = ? WHERE billed = 0 AND id IN (`+in+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("mark time entries billed: %w", err)
	}
	return res.RowsAffected()
}

// ClearBilled libera los registros facturados por invoiceID.
func (r *EntryRepo) ClearBilled(ctx context.Context, ids []string, invoiceID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := placeholders(ids)
	args = append([]any{toMillis(time.Now()), invoiceID}, args...)
	res, err := r.q.ExecContext(ctx,
		`UPDATE time_entries SET billed = 0, invoice_id = NULL, updated_at = ?
		 WHERE billed = 1 AND invoice_id = ? AND id IN (`+in+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("mark time entries unbilled: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*entity.TimeEntry, error) {
	var (
		e                    entity.TimeEntry
		workDate             string
		invoiceID            sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&e.ID, &e.FirmID, &e.MatterID, &e.Hours, &workDate, &e.Description,
		&e.Billed, &invoiceID, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	d, err := time.Parse(dateLayout, workDate)
	if err != nil {
		return nil, fmt.Errorf("work_date %q: %w", workDate, err)
	}
	e.WorkDate = d
	e.InvoiceID = invoiceID.String
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]*entity.TimeEntry, error) {
	defer rows.Close()
	var list []*entity.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
