package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación en memoria de InvoiceRepository (usable con o sin tx).
type InvoiceRepo struct {
	store *Store
	tx    *state
}

func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	return view(r.store, r.tx, true, func(st *state) error {
		if _, exists := st.invoices[invoice.ID]; exists {
			return fmt.Errorf("factura %s: %w", invoice.ID, domain.ErrDuplicate)
		}
		header := invoice.Clone()
		header.LineItems = nil
		st.invoices[invoice.ID] = header
		return nil
	})
}

func (r *InvoiceRepo) CreateLineItem(_ context.Context, item *entity.InvoiceLineItem) error {
	return view(r.store, r.tx, true, func(st *state) error {
		inv, ok := st.invoices[item.InvoiceID]
		if !ok {
			return fmt.Errorf("línea de factura %s: %w", item.InvoiceID, domain.ErrNotFound)
		}
		inv.LineItems = append(inv.LineItems, *item)
		sort.SliceStable(inv.LineItems, func(i, j int) bool { return inv.LineItems[i].Position < inv.LineItems[j].Position })
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	var out *entity.Invoice
	err := view(r.store, r.tx, false, func(st *state) error {
		out = st.invoices[id].Clone()
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *InvoiceRepo) UpdateStatus(_ context.Context, invoice *entity.Invoice) error {
	return view(r.store, r.tx, true, func(st *state) error {
		cur, ok := st.invoices[invoice.ID]
		if !ok {
			return domain.ErrNotFound
		}
		c := invoice.Clone()
		cur.Status = c.Status
		cur.SentAt, cur.PaidAt, cur.VoidedAt = c.SentAt, c.PaidAt, c.VoidedAt
		cur.UpdatedAt = c.UpdatedAt
		return nil
	})
}

func (r *InvoiceRepo) ListByMatter(_ context.Context, firmID, matterID string) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	err := view(r.store, r.tx, false, func(st *state) error {
		for _, inv := range st.invoices {
			if inv.FirmID == firmID && inv.MatterID == matterID {
				out = append(out, inv.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedDate.Equal(out[j].IssuedDate) {
			return out[i].IssuedDate.After(out[j].IssuedDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}
