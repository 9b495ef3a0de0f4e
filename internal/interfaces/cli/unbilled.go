package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newUnbilledCmd(opts *rootOptions) *cobra.Command {
	var firmID, matterID, rate string
	cmd := &cobra.Command{
		Use:   "unbilled",
		Short: "Listar las horas sin facturar de un asunto y su valor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(firmID) == "" || strings.TrimSpace(matterID) == "" {
				return fmt.Errorf("--firm y --matter son obligatorios")
			}
			var override *decimal.Decimal
			if strings.TrimSpace(rate) != "" {
				r, err := decimal.NewFromString(strings.TrimSpace(rate))
				if err != nil {
					return fmt.Errorf("--rate inválido: %w", err)
				}
				override = &r
			}

			rt, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			list, err := rt.entries.ListUnbilled(cmd.Context(), firmID, matterID)
			if err != nil {
				return err
			}
			total, err := rt.ledger.UnbilledTotal(cmd.Context(), firmID, matterID, override)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFECHA\tHORAS\tDESCRIPCIÓN")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.WorkDate.Format("2006-01-02"), e.Hours.String(), e.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d registros, %s horas x %s = %s\n",
				total.Entries, total.Hours.String(), total.HourlyRate.StringFixed(2), total.Total.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&firmID, "firm", "", "ID de la firma")
	cmd.Flags().StringVar(&matterID, "matter", "", "ID del asunto")
	cmd.Flags().StringVar(&rate, "rate", "", "Tarifa por hora; vacío = BILLING_HOURLY_RATE")
	return cmd
}
