package repository

import (
	"context"

	"github.com/jhoicas/timeledger-api/internal/domain/entity"
)

// TimeEntryRepository define el puerto de persistencia para registros de tiempo.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *entity.TimeEntry) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.TimeEntry, error)
	Update(ctx context.Context, entry *entity.TimeEntry) error
	Delete(ctx context.Context, id string) error
	// ListUnbilled devuelve los registros sin facturar del asunto, por fecha descendente.
	ListUnbilled(ctx context.Context, firmID, matterID string) ([]*entity.TimeEntry, error)
	// GetForUpdate obtiene y bloquea las filas indicadas (ordenadas por id).
	// Los IDs inexistentes simplemente no aparecen en el resultado.
	GetForUpdate(ctx context.Context, ids []string) ([]*entity.TimeEntry, error)
	// SetBilled marca como facturados los registros que aún no lo están (compare-and-swap)
	// y devuelve cuántas filas cambiaron.
	SetBilled(ctx context.Context, ids []string, invoiceID string) (int64, error)
	// ClearBilled libera los registros facturados por invoiceID y devuelve cuántas filas cambiaron.
	ClearBilled(ctx context.Context, ids []string, invoiceID string) (int64, error)
}
