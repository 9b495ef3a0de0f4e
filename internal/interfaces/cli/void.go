package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newVoidCmd(opts *rootOptions) *cobra.Command {
	var firmID, invoiceID string
	cmd := &cobra.Command{
		Use:   "void",
		Short: "Anular una factura y liberar sus registros de tiempo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(firmID) == "" || strings.TrimSpace(invoiceID) == "" {
				return fmt.Errorf("--firm y --invoice son obligatorios")
			}
			rt, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			inv, err := rt.ledger.VoidInvoice(cmd.Context(), firmID, invoiceID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "factura %s anulada; %d registros liberados\n", inv.ID, len(inv.LineItems))
			return nil
		},
	}
	cmd.Flags().StringVar(&firmID, "firm", "", "ID de la firma")
	cmd.Flags().StringVar(&invoiceID, "invoice", "", "ID de la factura")
	return cmd
}
