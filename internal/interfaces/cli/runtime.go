package cli

import (
	"fmt"
	"strings"

	"github.com/jhoicas/timeledger-api/internal/application/billing"
	"github.com/jhoicas/timeledger-api/internal/infrastructure/storage"
	"github.com/jhoicas/timeledger-api/pkg/config"
	"github.com/jhoicas/timeledger-api/pkg/logger"
	"github.com/spf13/cobra"
)

// runtime agrupa lo que necesita un comando: backend abierto y casos de uso.
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	backend *storage.Backend
	entries *billing.TimeEntryStore
	ledger  *billing.LedgerUseCase
}

func (o *rootOptions) open(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	if o.driver != "" {
		cfg.DB.Driver = strings.ToLower(strings.TrimSpace(o.driver))
	}
	if o.sqlitePath != "" {
		cfg.DB.SQLitePath = o.sqlitePath
	}
	if o.databaseURL != "" {
		cfg.DB.DatabaseURL = o.databaseURL
	}
	policy, err := cfg.Billing.Policy()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: cmd.ErrOrStderr()}).Component("ledgerctl")
	backend, err := storage.Open(cmd.Context(), cfg.DB, log)
	if err != nil {
		return nil, err
	}
	entries := billing.NewTimeEntryStore(backend.TxRunner, backend.TimeEntries)
	lifecycle := billing.NewInvoiceLifecycleManager(backend.TxRunner, entries)
	uc := billing.NewLedgerUseCase(backend.TxRunner, entries, lifecycle, backend.Invoices, policy, log)
	return &runtime{cfg: cfg, log: log, backend: backend, entries: entries, ledger: uc}, nil
}

func (r *runtime) Close() {
	r.backend.Close()
}
