package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/timeledger-api/internal/application/dto"
	"github.com/jhoicas/timeledger-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func newImportEntriesCmd(opts *rootOptions) *cobra.Command {
	var firmID, file, encoding, delimiter string
	cmd := &cobra.Command{
		Use:   "import-entries",
		Short: "Importar registros de tiempo desde un CSV del sistema de horas anterior",
		Long: "Lee un CSV con columnas matter_id, hours, work_date y description (id opcional).\n" +
			"También acepta los encabezados asunto, horas, fecha y descripcion, fechas DD/MM/AAAA y horas con coma decimal.\n" +
			"Los registros cuyo id ya existe se omiten, así que reimportar el mismo archivo es seguro.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(firmID) == "" || strings.TrimSpace(file) == "" {
				return fmt.Errorf("--firm y --file son obligatorios")
			}
			sep, size := utf8.DecodeRuneInString(delimiter)
			if size == 0 || size != len(delimiter) {
				return fmt.Errorf("--delimiter debe ser un solo carácter")
			}

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("abrir %s: %w", file, err)
			}
			defer f.Close()

			r, err := decodeReader(f, encoding)
			if err != nil {
				return err
			}
			rows, err := parseEntriesCSV(r, sep)
			if err != nil {
				return err
			}

			rt, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			var created, skipped int
			var failed []string
			for _, row := range rows {
				_, err := rt.entries.Create(cmd.Context(), firmID, row.req)
				switch {
				case err == nil:
					created++
				case errors.Is(err, domain.ErrDuplicate):
					skipped++
				case errors.Is(err, domain.ErrTransient), !domain.IsDomainError(err):
					return fmt.Errorf("línea %d: %w", row.line, err)
				default:
					failed = append(failed, fmt.Sprintf("línea %d: %v", row.line, err))
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d importados, %d omitidos (ya existían), %d con error\n", created, skipped, len(failed))
			for _, msg := range failed {
				fmt.Fprintln(out, "  "+msg)
			}
			rt.log.Info().
				Str("firm_id", firmID).
				Str("file", file).
				Int("created", created).
				Int("skipped", skipped).
				Int("failed", len(failed)).
				Msg("importación de registros terminada")
			if len(failed) > 0 {
				return fmt.Errorf("%d registros no se importaron", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&firmID, "firm", "", "ID de la firma dueña de los registros")
	cmd.Flags().StringVar(&file, "file", "", "Ruta del CSV")
	cmd.Flags().StringVar(&encoding, "encoding", "utf-8", "Codificación del archivo (utf-8, windows-1252, iso-8859-1)")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "Separador de columnas")
	return cmd
}

// decodeReader convierte el archivo a UTF-8 según la codificación declarada.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		// Quita el BOM que agregan las exportaciones de Excel.
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	}
	return nil, fmt.Errorf("codificación no soportada: %q", encoding)
}

type importRow struct {
	line int
	req  dto.CreateTimeEntryRequest
}

var headerAliases = map[string]string{
	"id":          "id",
	"matter_id":   "matter_id",
	"asunto":      "matter_id",
	"hours":       "hours",
	"horas":       "hours",
	"work_date":   "work_date",
	"fecha":       "work_date",
	"description": "description",
	"descripcion": "description",
	"descripción": "description",
}

// parseEntriesCSV valida encabezado y filas. Falla en la primera fila mal formada.
func parseEntriesCSV(r io.Reader, sep rune) ([]importRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		if name, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[name] = i
		}
	}
	for _, required := range []string{"matter_id", "hours", "work_date"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q en el encabezado", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []importRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		hours, err := parseHours(field(rec, "hours"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		date, err := normalizeDate(field(rec, "work_date"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		rows = append(rows, importRow{line: line, req: dto.CreateTimeEntryRequest{
			ID:          field(rec, "id"),
			MatterID:    field(rec, "matter_id"),
			Hours:       hours,
			WorkDate:    date,
			Description: field(rec, "description"),
		}})
	}
	return rows, nil
}

// parseHours acepta "1.5" y "1,5".
func parseHours(s string) (decimal.Decimal, error) {
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("horas inválidas %q", s)
	}
	return d, nil
}

// normalizeDate acepta AAAA-MM-DD y DD/MM/AAAA y devuelve AAAA-MM-DD.
func normalizeDate(s string) (string, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("fecha inválida %q", s)
}
