package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

var _ repository.TimeEntryRepository = (*EntryRepo)(nil)

// EntryRepo implementación en memoria de TimeEntryRepository (usable con o sin tx).
type EntryRepo struct {
	store *Store
	tx    *state
}

func (r *EntryRepo) Create(_ context.Context, entry *entity.TimeEntry) error {
	return view(r.store, r.tx, true, func(st *state) error {
		if _, exists := st.entries[entry.ID]; exists {
			return fmt.Errorf("registro %s: %w", entry.ID, domain.ErrDuplicate)
		}
		st.entries[entry.ID] = entry.Clone()
		return nil
	})
}

func (r *EntryRepo) GetByID(_ context.Context, id string) (*entity.TimeEntry, error) {
	var out *entity.TimeEntry
	err := view(r.store, r.tx, false, func(st *state) error {
		out = st.entries[id].Clone()
		return nil
	})
	return out, err
}

func (r *EntryRepo) Update(_ context.Context, entry *entity.TimeEntry) error {
	return view(r.store, r.tx, true, func(st *state) error {
		cur, ok := st.entries[entry.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Hours = entry.Hours
		cur.WorkDate = entry.WorkDate
		cur.Description = entry.Description
		cur.UpdatedAt = entry.UpdatedAt
		return nil
	})
}

func (r *EntryRepo) Delete(_ context.Context, id string) error {
	return view(r.store, r.tx, true, func(st *state) error {
		delete(st.entries, id)
		return nil
	})
}

func (r *EntryRepo) ListUnbilled(_ context.Context, firmID, matterID string) ([]*entity.TimeEntry, error) {
	var out []*entity.TimeEntry
	err := view(r.store, r.tx, false, func(st *state) error {
		for _, e := range st.entries {
			if e.FirmID == firmID && e.MatterID == matterID && !e.Billed {
				out = append(out, e.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.WorkDate.Equal(b.WorkDate) {
			return a.WorkDate.After(b.WorkDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, err
}

// GetForUpdate en memoria no necesita bloquear: RunLedger ya serializa las transacciones.
func (r *EntryRepo) GetForUpdate(_ context.Context, ids []string) ([]*entity.TimeEntry, error) {
	var out []*entity.TimeEntry
	err := view(r.store, r.tx, false, func(st *state) error {
		for _, id := range sortedIDs(st.entries, ids) {
			out = append(out, st.entries[id].Clone())
		}
		return nil
	})
	return out, err
}

func (r *EntryRepo) SetBilled(_ context.Context, ids []string, invoiceID string) (int64, error) {
	var n int64
	err := view(r.store, r.tx, true, func(st *state) error {
		now := time.Now()
		for _, id := range ids {
			if e, ok := st.entries[id]; ok && !e.Billed {
				e.Billed = true
				e.InvoiceID = invoiceID
				e.UpdatedAt = now
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *EntryRepo) ClearBilled(_ context.Context, ids []string, invoiceID string) (int64, error) {
	var n int64
	err := view(r.store, r.tx, true, func(st *state) error {
		now := time.Now()
		for _, id := range ids {
			if e, ok := st.entries[id]; ok && e.Billed && e.InvoiceID == invoiceID {
				e.Billed = false
				e.InvoiceID = ""
				e.UpdatedAt = now
				n++
			}
		}
		return nil
	})
	return n, err
}
