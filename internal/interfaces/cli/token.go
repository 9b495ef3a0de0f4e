package cli

import (
	"fmt"
	"strings"

	"github.com/jhoicas/timeledger-api/pkg/config"
	pkgjwt "github.com/jhoicas/timeledger-api/pkg/jwt"
	"github.com/spf13/cobra"
)

var validRoles = map[string]bool{"admin": true, "abogado": true, "facturacion": true}

// newTokenCmd emite un Bearer token firmado con JWT_SECRET para integraciones y pruebas manuales.
func newTokenCmd() *cobra.Command {
	var userID, firmID, role string
	var expMinutes int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emitir un token de acceso para la API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(firmID) == "" {
				return fmt.Errorf("--user y --firm son obligatorios")
			}
			role = strings.ToLower(strings.TrimSpace(role))
			if !validRoles[role] {
				return fmt.Errorf("rol inválido %q (admin, abogado, facturacion)", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			if expMinutes <= 0 {
				expMinutes = cfg.JWT.Expiration
			}
			tok, err := pkgjwt.Generate(cfg.JWT.Secret, userID, firmID, role, cfg.JWT.Issuer, expMinutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID del usuario")
	cmd.Flags().StringVar(&firmID, "firm", "", "ID de la firma")
	cmd.Flags().StringVar(&role, "role", "facturacion", "Rol: admin, abogado o facturacion")
	cmd.Flags().IntVar(&expMinutes, "exp", 0, "Minutos de validez; 0 = JWT_EXPIRATION_MINUTES")
	return cmd
}
