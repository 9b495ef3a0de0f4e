package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplicar las migraciones pendientes del esquema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.backend.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migraciones aplicadas (%s)\n", n, rt.backend.Driver)
			return nil
		},
	}
}
