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

var _ repository.TimeEntryRepository = (*TimeEntryRepo)(nil)

const timeEntryColumns = `id, firm_id, matter_id, hours, work_date, description, billed, invoice_id, created_at, updated_at`

// TimeEntryRepo implementación de TimeEntryRepository (usable con pool o tx).
type TimeEntryRepo struct {
	q Querier
}

// NewTimeEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTimeEntryRepository(q Querier) *TimeEntryRepo {
	return &TimeEntryRepo{q: q}
}

// Create persiste un registro de tiempo nuevo.
func (r *TimeEntryRepo) Create(ctx context.Context, e *entity.TimeEntry) error {
	query := `
		INSERT INTO time_entries (` + timeEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.FirmID, e.MatterID, e.Hours, e.WorkDate, e.Description,
		e.Billed, nullIfEmpty(e.InvoiceID), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert time entry: %w", err)
	}
	return nil
}

// GetByID obtiene un registro por ID.
func (r *TimeEntryRepo) GetByID(ctx context.Context, id string) (*entity.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`
	e, err := scanTimeEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

// Update actualiza horas, fecha y descripción. No toca billed ni invoice_id.
func (r *TimeEntryRepo) Update(ctx context.Context, e *entity.TimeEntry) error {
	query := `
		UPDATE time_entries SET hours = $2, work_date = $3, description = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, e.ID, e.Hours, e.WorkDate, e.Description, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un registro por ID.
func (r *TimeEntryRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUnbilled lista los registros sin facturar del asunto por fecha descendente.
func (r *TimeEntryRepo) ListUnbilled(ctx context.Context, firmID, matterID string) ([]*entity.TimeEntry, error) {
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE firm_id = $1 AND matter_id = $2 AND NOT billed
		ORDER BY work_date DESC, created_at DESC, id DESC`
	rows, err := r.q.Query(ctx, query, firmID, matterID)
	if err != nil {
		return nil, fmt.Errorf("list unbilled time entries: %w", err)
	}
	return collectTimeEntries(rows)
}

// GetForUpdate bloquea las filas en orden de id para que dos transacciones no se crucen (sin deadlocks).
func (r *TimeEntryRepo) GetForUpdate(ctx context.Context, ids []string) ([]*entity.TimeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + timeEntryColumns + `
		FROM time_entries
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		if isLockFailure(err) {
			return nil, fmt.Errorf("lock de registros de tiempo no disponible: %w", err)
		}
		return nil, fmt.Errorf("lock time entries: %w", err)
	}
	list, err := collectTimeEntries(rows)
	if err != nil && isLockFailure(err) {
		return nil, fmt.Errorf("lock de registros de tiempo no disponible: %w", err)
	}
	return list, err
}

// SetBilled marca facturados solo los registros aún libres (compare-and-swap sobre billed).
func (r *TimeEntryRepo) SetBilled(ctx context.Context, ids []string, invoiceID string) (int64, error) {
	query := `
		UPDATE time_entries SET billed = TRUE, invoice_id = $2, updated_at = NOW()
		WHERE id = ANY($1) AND NOT billed`
	tag, err := r.q.Exec(ctx, query, ids, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("mark time entries billed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClearBilled libera los registros facturados por invoiceID.
func (r *TimeEntryRepo) ClearBilled(ctx context.Context, ids []string, invoiceID string) (int64, error) {
	query := `
		UPDATE time_entries SET billed = FALSE, invoice_id = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND billed AND invoice_id = $2`
	tag, err := r.q.Exec(ctx, query, ids, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("mark time entries unbilled: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTimeEntry(row pgx.Row) (*entity.TimeEntry, error) {
	var e entity.TimeEntry
	var invoiceID *string
	if err := row.Scan(
		&e.ID, &e.FirmID, &e.MatterID, &e.Hours, &e.WorkDate, &e.Description,
		&e.Billed, &invoiceID, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.InvoiceID = stringOrEmpty(invoiceID)
	return &e, nil
}

func collectTimeEntries(rows pgx.Rows) ([]*entity.TimeEntry, error) {
	defer rows.Close()
	var list []*entity.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
