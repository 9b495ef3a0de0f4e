// Package ledger contiene las reglas puras de facturación por horas:
// cálculo de montos, construcción de facturas y máquina de estados.
// No hace I/O; la persistencia y las transacciones viven en la capa de aplicación.
package ledger

import "github.com/shopspring/decimal"

// Round2 redondea a 2 decimales, mitad hacia arriba.
// decimal.Round redondea la mitad alejándose de cero, que coincide con
// half-up para los montos (siempre positivos) que maneja el ledger.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SumHours suma las horas de los registros dados.
func SumHours(hours ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, hours...)
}

// Amount = round2(horas * tarifa). Se redondea una sola vez sobre el total.
func Amount(totalHours, rate decimal.Decimal) decimal.Decimal {
	return Round2(totalHours.Mul(rate))
}
