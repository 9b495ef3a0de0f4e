package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// TimeEntryStore es la fuente autoritativa del estado facturado/no facturado de los registros de tiempo.
// Es el único componente que modifica Billed; las variantes *InTx operan con los repos de la transacción del caller.
type TimeEntryStore struct {
	txRunner  LedgerTxRunner
	entryRepo repository.TimeEntryRepository
	now       func() time.Time
}

// NewTimeEntryStore construye el store. entryRepo es el repositorio atado al pool (lecturas fuera de tx).
func NewTimeEntryStore(txRunner LedgerTxRunner, entryRepo repository.TimeEntryRepository) *TimeEntryStore {
	return &TimeEntryStore{txRunner: txRunner, entryRepo: entryRepo, now: time.Now}
}

// Create registra horas trabajadas sobre un asunto; el registro nace sin facturar.
func (s *TimeEntryStore) Create(ctx context.Context, firmID string, in dto.CreateTimeEntryRequest) (*entity.TimeEntry, error) {
	matterID := strings.TrimSpace(in.MatterID)
	if firmID == "" || matterID == "" {
		return nil, domain.ErrInvalidInput
	}
	workDate, err := parseWorkDate(in.WorkDate)
	if err != nil {
		return nil, err
	}
	if !in.Hours.IsPositive() {
		return nil, fmt.Errorf("%w: las horas deben ser mayores que cero", domain.ErrInvalidInput)
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	now := s.now()
	e := &entity.TimeEntry{
		ID:          id,
		FirmID:      firmID,
		MatterID:    matterID,
		Hours:       in.Hours,
		WorkDate:    workDate,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.entryRepo.Create(ctx, e); err != nil {
		return nil, domain.Transient("crear registro de tiempo", err)
	}
	return e, nil
}

// GetByID obtiene un registro de la firma.
func (s *TimeEntryStore) GetByID(ctx context.Context, firmID, id string) (*entity.TimeEntry, error) {
	e, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Transient("obtener registro de tiempo", err)
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	if e.FirmID != firmID {
		return nil, domain.ErrForbidden
	}
	return e, nil
}

// Update modifica horas, fecha y descripción de un registro sin facturar.
func (s *TimeEntryStore) Update(ctx context.Context, firmID, id string, in dto.UpdateTimeEntryRequest) (*entity.TimeEntry, error) {
	workDate, err := parseWorkDate(in.WorkDate)
	if err != nil {
		return nil, err
	}
	if !in.Hours.IsPositive() {
		return nil, fmt.Errorf("%w: las horas deben ser mayores que cero", domain.ErrInvalidInput)
	}
	var updated *entity.TimeEntry
	err = s.txRunner.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, _ repository.InvoiceRepository) error {
		e, err := s.lockOwned(ctx, entryRepo, firmID, id)
		if err != nil {
			return err
		}
		if e.Billed {
			return &domain.InvalidStateError{EntryID: e.ID, InvoiceID: e.InvoiceID}
		}
		e.Hours = in.Hours
		e.WorkDate = workDate
		e.Description = strings.TrimSpace(in.Description)
		e.UpdatedAt = s.now()
		if err := entryRepo.Update(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, domain.Transient("actualizar registro de tiempo", err)
	}
	return updated, nil
}

// Delete elimina un registro. Falla con InvalidStateError si está facturado.
func (s *TimeEntryStore) Delete(ctx context.Context, firmID, id string) error {
	err := s.txRunner.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, _ repository.InvoiceRepository) error {
		e, err := s.lockOwned(ctx, entryRepo, firmID, id)
		if err != nil {
			return err
		}
		if e.Billed {
			return &domain.InvalidStateError{EntryID: e.ID, InvoiceID: e.InvoiceID}
		}
		return entryRepo.Delete(ctx, e.ID)
	})
	return domain.Transient("eliminar registro de tiempo", err)
}

// ListUnbilled devuelve los registros sin facturar del asunto, por fecha descendente. Sin efectos.
func (s *TimeEntryStore) ListUnbilled(ctx context.Context, firmID, matterID string) ([]*entity.TimeEntry, error) {
	if firmID == "" || matterID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := s.entryRepo.ListUnbilled(ctx, firmID, matterID)
	if err != nil {
		return nil, domain.Transient("listar registros sin facturar", err)
	}
	return list, nil
}

// LockForBillingInTx bloquea y valida los registros a facturar y los devuelve en el orden pedido.
// ConflictError si alguno no existe, es de otro asunto/firma o ya está facturado.
func (s *TimeEntryStore) LockForBillingInTx(
	ctx context.Context,
	entryRepo repository.TimeEntryRepository,
	firmID, matterID string,
	ids []string,
) ([]*entity.TimeEntry, error) {
	byID, err := lockByID(ctx, entryRepo, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.TimeEntry, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		switch {
		case !ok || e.FirmID != firmID:
			return nil, &domain.ConflictError{EntryID: id, Reason: domain.ConflictNotFound}
		case e.MatterID != matterID:
			return nil, &domain.ConflictError{EntryID: id, Reason: domain.ConflictOtherMatter}
		case e.Billed:
			return nil, &domain.ConflictError{EntryID: id, Reason: domain.ConflictAlreadyBilled}
		}
		out = append(out, e)
	}
	return out, nil
}

// MarkBilledInTx marca el lote como facturado por invoiceID: todos o ninguno.
// Bloquea y valida las filas y luego usa compare-and-swap sobre billed.
func (s *TimeEntryStore) MarkBilledInTx(
	ctx context.Context,
	entryRepo repository.TimeEntryRepository,
	firmID, matterID string,
	ids []string,
	invoiceID string,
) error {
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return domain.ErrEmptySelection
	}
	locked, err := s.LockForBillingInTx(ctx, entryRepo, firmID, matterID, ids)
	if err != nil {
		return err
	}
	return s.markLockedBilledInTx(ctx, entryRepo, locked, invoiceID)
}

// markLockedBilledInTx marca registros ya bloqueados y validados por LockForBillingInTx en la misma tx.
func (s *TimeEntryStore) markLockedBilledInTx(
	ctx context.Context,
	entryRepo repository.TimeEntryRepository,
	locked []*entity.TimeEntry,
	invoiceID string,
) error {
	ids := make([]string, len(locked))
	for i, e := range locked {
		ids[i] = e.ID
	}
	n, err := entryRepo.SetBilled(ctx, ids, invoiceID)
	if err != nil {
		return err
	}
	if n == int64(len(ids)) {
		return nil
	}
	// Otra transacción ganó la carrera; el caller hace rollback.
	byID, err := lockByID(ctx, entryRepo, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return &domain.ConflictError{EntryID: id, Reason: domain.ConflictNotFound}
		}
		if e.InvoiceID != invoiceID {
			return &domain.ConflictError{EntryID: id, Reason: domain.ConflictAlreadyBilled}
		}
	}
	return &domain.ConflictError{EntryID: ids[0], Reason: domain.ConflictAlreadyBilled}
}

// MarkUnbilledInTx libera los registros facturados por invoiceID (solo al anular).
// ConflictError si alguno no está facturado por esa factura.
func (s *TimeEntryStore) MarkUnbilledInTx(
	ctx context.Context,
	entryRepo repository.TimeEntryRepository,
	ids []string,
	invoiceID string,
) error {
	ids = UniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	byID, err := lockByID(ctx, entryRepo, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return &domain.ConflictError{EntryID: id, Reason: domain.ConflictNotFound}
		}
		if !e.Billed || e.InvoiceID != invoiceID {
			return &domain.ConflictError{EntryID: id, Reason: domain.ConflictNotBilled}
		}
	}
	n, err := entryRepo.ClearBilled(ctx, ids, invoiceID)
	if err != nil {
		return err
	}
	if n == int64(len(ids)) {
		return nil
	}
	after, err := lockByID(ctx, entryRepo, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		e, ok := after[id]
		if !ok {
			return &domain.ConflictError{EntryID: id, Reason: domain.ConflictNotFound}
		}
		if e.Billed {
			return &domain.ConflictError{EntryID: id, Reason: domain.ConflictNotBilled}
		}
	}
	return &domain.ConflictError{EntryID: ids[0], Reason: domain.ConflictNotBilled}
}

func (s *TimeEntryStore) lockOwned(ctx context.Context, entryRepo repository.TimeEntryRepository, firmID, id string) (*entity.TimeEntry, error) {
	rows, err := entryRepo.GetForUpdate(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	if rows[0].FirmID != firmID {
		return nil, domain.ErrForbidden
	}
	return rows[0], nil
}

func lockByID(ctx context.Context, entryRepo repository.TimeEntryRepository, ids []string) (map[string]*entity.TimeEntry, error) {
	rows, err := entryRepo.GetForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.TimeEntry, len(rows))
	for _, e := range rows {
		byID[e.ID] = e
	}
	return byID, nil
}

// UniqueIDs elimina vacíos y duplicados conservando el orden de la primera aparición.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func parseWorkDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: work_date debe tener formato YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return d, nil
}

// TotalHours suma las horas de una lista de registros.
func TotalHours(entries []*entity.TimeEntry) decimal.Decimal {
	hours := make([]decimal.Decimal, len(entries))
	for i, e := range entries {
		hours[i] = e.Hours
	}
	return ledger.SumHours(hours...)
}
