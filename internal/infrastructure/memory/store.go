// Package memory implementa los puertos del ledger en memoria.
// Se usa en tests y con DB_DRIVER=memory; los datos se pierden al reiniciar.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
)

var _ billing.LedgerTxRunner = (*Store)(nil)

// Store guarda registros y facturas en mapas protegidos por un único mutex.
// RunLedger trabaja sobre una copia del estado y la publica solo si fn y el contexto terminan bien,
// con lo que las transacciones quedan serializadas (un solo escritor).
type Store struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	entries  map[string]*entity.TimeEntry
	invoices map[string]*entity.Invoice
}

// New construye un store vacío.
func New() *Store {
	return &Store{state: &state{
		entries:  make(map[string]*entity.TimeEntry),
		invoices: make(map[string]*entity.Invoice),
	}}
}

// RunLedger ejecuta fn con repos atados a una copia del estado y hace commit si no hay error.
func (s *Store) RunLedger(ctx context.Context, fn func(
	entryRepo repository.TimeEntryRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	staged := s.state.clone()
	if err := fn(&EntryRepo{tx: staged}, &InvoiceRepo{tx: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// TimeEntries devuelve el repositorio de registros fuera de transacción.
func (s *Store) TimeEntries() *EntryRepo { return &EntryRepo{store: s} }

// Invoices devuelve el repositorio de facturas fuera de transacción.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{store: s} }

func (st *state) clone() *state {
	c := &state{
		entries:  make(map[string]*entity.TimeEntry, len(st.entries)),
		invoices: make(map[string]*entity.Invoice, len(st.invoices)),
	}
	for id, e := range st.entries {
		c.entries[id] = e.Clone()
	}
	for id, inv := range st.invoices {
		c.invoices[id] = inv.Clone()
	}
	return c
}

// view ejecuta fn sobre el estado: el de la tx si existe, o el publicado bajo lock.
func view(store *Store, tx *state, write bool, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	if write {
		store.mu.Lock()
		defer store.mu.Unlock()
	} else {
		store.mu.RLock()
		defer store.mu.RUnlock()
	}
	return fn(store.state)
}

func sortedIDs[T any](m map[string]T, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := m[id]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
