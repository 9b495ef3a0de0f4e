package repository

import (
	"context"

	"github.com/jhoicas/timeledger-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	// Create persiste solo la cabecera.
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateLineItem(ctx context.Context, item *entity.InvoiceLineItem) error
	// GetByID devuelve la factura con sus líneas, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate igual que GetByID pero bloquea la cabecera hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	// UpdateStatus persiste status, sent_at, paid_at, voided_at y updated_at.
	UpdateStatus(ctx context.Context, invoice *entity.Invoice) error
	// ListByMatter devuelve las facturas del asunto por fecha de emisión descendente.
	ListByMatter(ctx context.Context, firmID, matterID string) ([]*entity.Invoice, error)
}
