package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrDuplicate    = errors.New("recurso duplicado")

	// Errores del ledger de facturación por horas.
	ErrEmptySelection    = errors.New("no se seleccionaron registros de tiempo")
	ErrInvalidRate       = errors.New("la tarifa por hora debe ser mayor que cero")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrIllegalTransition = errors.New("transición de estado no permitida")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual")
	ErrTransient         = errors.New("error transitorio de persistencia, reintente")
)

// Motivos de conflicto sobre un registro de tiempo.
const (
	ConflictNotFound      = "not_found"
	ConflictOtherMatter   = "other_matter"
	ConflictAlreadyBilled = "already_billed"
	ConflictNotBilled     = "not_billed"
)

// ConflictError indica qué registro de tiempo impide la operación y por qué.
type ConflictError struct {
	EntryID string
	Reason  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: registro %s (%s)", ErrConflict.Error(), e.EntryID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// IllegalTransitionError describe un cambio de estado de factura rechazado.
// Terminal indica que From ya no admite ninguna transición (paid, void).
type IllegalTransitionError struct {
	InvoiceID string
	From      string
	To        string
	Terminal  bool
}

func (e *IllegalTransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("%s: factura %s en estado terminal %q, no puede pasar a %q", ErrIllegalTransition.Error(), e.InvoiceID, e.From, e.To)
	}
	return fmt.Sprintf("%s: factura %s de %q a %q", ErrIllegalTransition.Error(), e.InvoiceID, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// InvalidStateError se devuelve al editar o eliminar un registro ya facturado.
type InvalidStateError struct {
	EntryID   string
	InvoiceID string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: registro %s facturado en %s", ErrInvalidState.Error(), e.EntryID, e.InvoiceID)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// TransientError envuelve un fallo de infraestructura (I/O, lock timeout, commit).
// Un commit fallido nunca deja efectos parciales, así que el caller puede reintentar.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() []error { return []error{ErrTransient, e.Err} }

// Transient envuelve err como TransientError salvo que ya sea un error de dominio.
func Transient(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}

// IsDomainError indica si err pertenece a la taxonomía de errores del dominio.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrForbidden, ErrDuplicate,
		ErrEmptySelection, ErrInvalidRate, ErrConflict, ErrIllegalTransition,
		ErrInvalidState, ErrTransient,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
