package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jhoicas/timeledger-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProduccionEscribeJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})

	log.Component("ledger").Info().Str("invoice_id", "inv-1").Msg("factura creada")
	log.Debug().Msg("no debe aparecer")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "ledger", line["component"])
	assert.Equal(t, "inv-1", line["invoice_id"])
	assert.Equal(t, "factura creada", line["message"])
}

func TestNop_NoEscribe(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Error().Msg("silencio") })
}
