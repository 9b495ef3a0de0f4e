package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/jhoicas/timeledger-api/internal/domain/entity"
	"github.com/jhoicas/timeledger-api/internal/domain/ledger"
	"github.com/jhoicas/timeledger-api/internal/domain/repository"
	"github.com/jhoicas/timeledger-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// LedgerUseCase es el punto de entrada único del ledger de facturación:
// coordina construcción + commit de facturas como una sola unidad y responde consultas agregadas.
type LedgerUseCase struct {
	txRunner    LedgerTxRunner
	entries     *TimeEntryStore
	lifecycle   *InvoiceLifecycleManager
	invoiceRepo repository.InvoiceRepository
	policy      ledger.Policy
	log         *logger.Logger
	now         func() time.Time
}

// NewLedgerUseCase construye el caso de uso. invoiceRepo es el repositorio atado al pool (lecturas).
func NewLedgerUseCase(
	txRunner LedgerTxRunner,
	entries *TimeEntryStore,
	lifecycle *InvoiceLifecycleManager,
	invoiceRepo repository.InvoiceRepository,
	policy ledger.Policy,
	log *logger.Logger,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:    txRunner,
		entries:     entries,
		lifecycle:   lifecycle,
		invoiceRepo: invoiceRepo,
		policy:      policy,
		log:         log.Component("ledger"),
		now:         time.Now,
	}
}

// CreateInvoiceFromEntries construye una factura draft con los registros indicados y los marca facturados,
// todo en una transacción: o queda la factura con sus registros facturados, o no queda nada.
func (uc *LedgerUseCase) CreateInvoiceFromEntries(ctx context.Context, firmID string, in dto.CreateInvoiceRequest) (*entity.Invoice, error) {
	ids := UniqueIDs(in.TimeEntryIDs)
	if len(ids) == 0 {
		return nil, domain.ErrEmptySelection
	}
	matterID := strings.TrimSpace(in.MatterID)
	if firmID == "" || matterID == "" || strings.TrimSpace(in.ClientID) == "" {
		return nil, domain.ErrInvalidInput
	}
	rate, err := uc.policy.ResolveRate(in.HourlyRate)
	if err != nil {
		return nil, err
	}

	var inv *entity.Invoice
	err = uc.txRunner.RunLedger(ctx, func(entryRepo repository.TimeEntryRepository, invoiceRepo repository.InvoiceRepository) error {
		// 1) Bloquear y validar registros (sin facturar, mismo asunto)
		entries, err := uc.entries.LockForBillingInTx(ctx, entryRepo, firmID, matterID, ids)
		if err != nil {
			return err
		}

		// 2) Construir la factura (cálculo puro)
		built, err := ledger.BuildInvoice(ledger.BuildInput{
			FirmID:   firmID,
			MatterID: matterID,
			ClientID: strings.TrimSpace(in.ClientID),
			Entries:  entries,
			Rate:     rate,
			Policy:   uc.policy,
			Now:      uc.now(),
		})
		if err != nil {
			return err
		}

		// 3) Persistir cabecera y líneas
		if err := invoiceRepo.Create(ctx, built); err != nil {
			return err
		}
		for i := range built.LineItems {
			if err := invoiceRepo.CreateLineItem(ctx, &built.LineItems[i]); err != nil {
				return err
			}
		}

		// 4) Marcar facturados; si falla se revierte también la factura
		if err := uc.entries.markLockedBilledInTx(ctx, entryRepo, entries, built.ID); err != nil {
			return err
		}
		inv = built
		return nil
	})
	if err != nil {
		uc.logFailure(err, "crear factura", firmID, matterID, "")
		return nil, domain.Transient("crear factura", err)
	}

	uc.log.Info().
		Str("firm_id", firmID).
		Str("matter_id", matterID).
		Str("invoice_id", inv.ID).
		Int("entries", len(inv.LineItems)).
		Str("amount", inv.Amount.StringFixed(2)).
		Msg("factura creada")
	return inv, nil
}

// VoidInvoice anula la factura y libera sus registros de tiempo en una sola transacción.
func (uc *LedgerUseCase) VoidInvoice(ctx context.Context, firmID, invoiceID string) (*entity.Invoice, error) {
	return uc.ChangeStatus(ctx, firmID, invoiceID, entity.InvoiceStatusVoid)
}

// ChangeStatus aplica una transición (sent | paid | void). Los callbacks de pago se mapean a sent → paid.
func (uc *LedgerUseCase) ChangeStatus(ctx context.Context, firmID, invoiceID string, to entity.InvoiceStatus) (*entity.Invoice, error) {
	if firmID == "" || strings.TrimSpace(invoiceID) == "" {
		return nil, domain.ErrInvalidInput
	}
	inv, err := uc.lifecycle.Transition(ctx, firmID, strings.TrimSpace(invoiceID), to)
	if err != nil {
		uc.logFailure(err, "cambiar estado de factura", firmID, "", invoiceID)
		return nil, err
	}
	uc.log.Info().
		Str("firm_id", firmID).
		Str("matter_id", inv.MatterID).
		Str("invoice_id", inv.ID).
		Str("status", string(inv.Status)).
		Msg("estado de factura actualizado")
	return inv, nil
}

// UnbilledTotal devuelve horas y valor pendientes de facturar del asunto. Solo lectura.
func (uc *LedgerUseCase) UnbilledTotal(ctx context.Context, firmID, matterID string, rateOverride *decimal.Decimal) (*dto.UnbilledTotalResponse, error) {
	rate, err := uc.policy.ResolveRate(rateOverride)
	if err != nil {
		return nil, err
	}
	list, err := uc.entries.ListUnbilled(ctx, firmID, matterID)
	if err != nil {
		return nil, err
	}
	hours := TotalHours(list)
	return &dto.UnbilledTotalResponse{
		MatterID:   matterID,
		Entries:    len(list),
		Hours:      hours,
		HourlyRate: rate,
		Total:      ledger.Amount(hours, rate),
	}, nil
}

// InvoiceHistory lista las facturas del asunto por fecha de emisión descendente.
func (uc *LedgerUseCase) InvoiceHistory(ctx context.Context, firmID, matterID string) ([]*entity.Invoice, error) {
	if firmID == "" || matterID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.invoiceRepo.ListByMatter(ctx, firmID, matterID)
	if err != nil {
		return nil, domain.Transient("listar facturas", err)
	}
	return list, nil
}

// GetInvoice obtiene una factura de la firma con sus líneas.
func (uc *LedgerUseCase) GetInvoice(ctx context.Context, firmID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Transient("obtener factura", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.FirmID != firmID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}

func (uc *LedgerUseCase) logFailure(err error, op, firmID, matterID, invoiceID string) {
	ev := uc.log.Warn()
	if !domain.IsDomainError(err) || errors.Is(err, domain.ErrTransient) {
		ev = uc.log.Error()
	}
	ev.Err(err).
		Str("op", op).
		Str("firm_id", firmID).
		Str("matter_id", matterID).
		Str("invoice_id", invoiceID).
		Msg("operación de facturación rechazada")
}
