package ledger

import (
	"fmt"

	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultDueDays plazo de vencimiento por defecto (días desde la emisión).
const DefaultDueDays = 30

// Policy agrupa la configuración de facturación que se pasa explícitamente a cada operación.
type Policy struct {
	DefaultHourlyRate decimal.Decimal
	DueDays           int
}

// DefaultPolicy devuelve la política con el plazo por defecto y sin tarifa.
func DefaultPolicy() Policy {
	return Policy{DueDays: DefaultDueDays}
}

// ResolveRate devuelve la tarifa explícita si viene, o la de la política.
func (p Policy) ResolveRate(override *decimal.Decimal) (decimal.Decimal, error) {
	rate := p.DefaultHourlyRate
	if override != nil {
		rate = *override
	}
	if err := ValidateRate(rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// ValidateRate exige una tarifa estrictamente positiva.
func ValidateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRate, rate.String())
	}
	return nil
}

func (p Policy) dueDays() int {
	if p.DueDays <= 0 {
		return DefaultDueDays
	}
	return p.DueDays
}
