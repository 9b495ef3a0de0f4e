// Package cli implementa ledgerctl, la herramienta de operación del ledger.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions flags globales; sobrescriben la configuración leída del entorno.
type rootOptions struct {
	driver      string
	sqlitePath  string
	databaseURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operación del ledger de horas y facturación",
		Long:          "ledgerctl aplica migraciones, importa registros de tiempo, consulta o anula facturas y emite tokens de acceso.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "Driver de almacenamiento (postgres, sqlite, memory); vacío = DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite-path", "", "Archivo SQLite; vacío = DB_SQLITE_PATH")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Connection string PostgreSQL; vacío = DATABASE_URL")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newImportEntriesCmd(opts))
	cmd.AddCommand(newUnbilledCmd(opts))
	cmd.AddCommand(newVoidCmd(opts))
	cmd.AddCommand(newTokenCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute ejecuta ledgerctl con el contexto dado (cancelado en SIGINT/SIGTERM por el main).
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
