package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/timeledger-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Entries   *billing.TimeEntryStore
	Ledger    *billing.LedgerUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	billingRoles := RequireRole(RoleAdmin, RoleFacturacion)

	entryHandler := NewTimeEntryHandler(deps.Entries)
	invoiceHandler := NewInvoiceHandler(deps.Ledger)

	// Registros de tiempo (cualquier rol de la firma)
	entries := api.Group("/time-entries")
	entries.Post("/", entryHandler.Create)
	entries.Get("/:id", entryHandler.GetByID)
	entries.Put("/:id", entryHandler.Update)
	entries.Delete("/:id", entryHandler.Delete)

	// Consultas por asunto
	matters := api.Group("/matters/:matterId")
	matters.Get("/time-entries/unbilled", entryHandler.ListUnbilled)
	matters.Get("/unbilled-total", invoiceHandler.UnbilledTotal)
	matters.Get("/invoices", invoiceHandler.History)

	// Facturas: crear y cambiar estado solo admin o facturación
	invoices := api.Group("/invoices")
	invoices.Post("/", billingRoles, invoiceHandler.Create)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/status", billingRoles, invoiceHandler.ChangeStatus)
	invoices.Post("/:id/void", billingRoles, invoiceHandler.Void)
}
