package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/timeledger-api/internal/application/dto"
	pkgjwt "github.com/jhoicas/timeledger-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testFirmID    = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "timeledger-test"
	testExpMin    = 60
)

func bearer(t *testing.T, firmID, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, firmID, role, testIssuer, expMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// tokenForRole genera un token de la firma de prueba con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	return bearer(t, testFirmID, role, testExpMin)
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body.Code
}

// Facturar y cambiar estados queda reservado a admin y facturación; abogado solo registra tiempo.
func TestRouter_PermisosPorRol(t *testing.T) {
	cases := []struct {
		role         string
		createStatus int
		sendStatus   int
		voidStatus   int
	}{
		{"admin", http.StatusCreated, http.StatusOK, http.StatusOK},
		{"facturacion", http.StatusCreated, http.StatusOK, http.StatusOK},
		{"abogado", http.StatusForbidden, http.StatusForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			app := buildLedgerApp(t)

			resp, raw := call(t, app, http.MethodPost, "/api/time-entries", tc.role, map[string]any{
				"matter_id": "matter-1", "hours": "1.5", "work_date": "2026-03-02",
			})
			require.Equal(t, http.StatusCreated, resp.StatusCode, "todos los roles registran tiempo: %s", raw)
			var entry dto.TimeEntryResponse
			require.NoError(t, json.Unmarshal(raw, &entry))

			resp, raw = call(t, app, http.MethodPost, "/api/invoices", tc.role, map[string]any{
				"matter_id": "matter-1", "client_id": "client-1", "time_entry_ids": []string{entry.ID},
			})
			require.Equal(t, tc.createStatus, resp.StatusCode, string(raw))
			if tc.createStatus == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", errorCode(t, raw))

				// Las rutas de estado también están cerradas para el rol, aunque la factura exista.
				_, raw = call(t, app, http.MethodPost, "/api/invoices", "facturacion", map[string]any{
					"matter_id": "matter-1", "client_id": "client-1", "time_entry_ids": []string{entry.ID},
				})
			}
			var inv dto.InvoiceResponse
			require.NoError(t, json.Unmarshal(raw, &inv))
			require.NotEmpty(t, inv.ID)

			resp, _ = call(t, app, http.MethodPost, "/api/invoices/"+inv.ID+"/status", tc.role, map[string]any{"status": "sent"})
			assert.Equal(t, tc.sendStatus, resp.StatusCode)
			resp, _ = call(t, app, http.MethodPost, "/api/invoices/"+inv.ID+"/void", tc.role, nil)
			assert.Equal(t, tc.voidStatus, resp.StatusCode)

			// Las consultas están abiertas a cualquier rol de la firma.
			resp, _ = call(t, app, http.MethodGet, "/api/invoices/"+inv.ID, tc.role, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			resp, _ = call(t, app, http.MethodGet, "/api/matters/matter-1/invoices", tc.role, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestRouter_TokenSinFirmaRechazado(t *testing.T) {
	app := buildLedgerApp(t)

	resp, raw := send(t, app, http.MethodGet, "/api/matters/matter-1/time-entries/unbilled", bearer(t, "", "admin", testExpMin), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, raw))

	resp, _ = send(t, app, http.MethodPost, "/api/time-entries", bearer(t, "", "abogado", testExpMin), map[string]any{
		"matter_id": "matter-1", "hours": "1", "work_date": "2026-03-02",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "sin firma no se puede registrar tiempo")
}

func TestRouter_TokenSinRol(t *testing.T) {
	app := buildLedgerApp(t)
	noRole := bearer(t, testFirmID, "", testExpMin)

	resp, _ := send(t, app, http.MethodPost, "/api/time-entries", noRole, map[string]any{
		"matter_id": "matter-1", "hours": "1", "work_date": "2026-03-02",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "registrar tiempo no exige rol")

	resp, raw := send(t, app, http.MethodPost, "/api/invoices", noRole, map[string]any{
		"matter_id": "matter-1", "client_id": "client-1", "time_entry_ids": []string{"x"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", errorCode(t, raw))
}

func TestRouter_CredencialesInvalidas(t *testing.T) {
	app := buildLedgerApp(t)
	otherSecret, err := pkgjwt.Generate("otro-secret", testUserID, testFirmID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	cases := map[string]struct {
		authorization string
		code          string
	}{
		"sin header":     {"", "MISSING_TOKEN"},
		"sin Bearer":     {"Token abc", "INVALID_TOKEN"},
		"expirado":       {bearer(t, testFirmID, "admin", -1), "INVALID_TOKEN"},
		"otro secret":    {"Bearer " + otherSecret, "INVALID_TOKEN"},
		"token corrupto": {"Bearer no.es.jwt", "INVALID_TOKEN"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, raw := send(t, app, http.MethodGet, "/api/matters/matter-1/unbilled-total?rate=100", tc.authorization, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, raw))
		})
	}
}

// Los datos de otra firma no son visibles aunque el rol sea el adecuado.
func TestRouter_AislamientoPorFirma(t *testing.T) {
	app := buildLedgerApp(t)
	entry := createEntry(t, app, "matter-1", "2", "2026-03-02")
	resp, raw := call(t, app, http.MethodPost, "/api/invoices", "facturacion", map[string]any{
		"matter_id": "matter-1", "client_id": "client-1", "time_entry_ids": []string{entry.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var inv dto.InvoiceResponse
	require.NoError(t, json.Unmarshal(raw, &inv))

	other := bearer(t, "firm-otra", "admin", testExpMin)
	resp, _ = send(t, app, http.MethodGet, "/api/time-entries/"+entry.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = send(t, app, http.MethodGet, "/api/invoices/"+inv.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = send(t, app, http.MethodPost, "/api/invoices/"+inv.ID+"/void", other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = send(t, app, http.MethodGet, "/api/matters/matter-1/time-entries/unbilled", other, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.TimeEntryListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Zero(t, list.Total)
}
