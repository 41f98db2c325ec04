package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/payflow/pkg/logger"
)

type ctxKey struct{}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "payflow")),
	)

	log.Info("payment initiated", logger.TransactionID("tx_1"), logger.Amount(799))

	record := decodeRecord(t, &buf)
	assert.Equal(t, "payment initiated", record["msg"])
	assert.Equal(t, "payflow", record["service"])
	assert.Equal(t, "tx_1", record["transaction_id"])
	assert.Equal(t, float64(799), record["amount"])
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelWarn),
	)

	log.Info("suppressed")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestNew_ContextValueExtraction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("owner_id", ctxKey{}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "owner-1")
	log.InfoContext(ctx, "reconciled")

	record := decodeRecord(t, &buf)
	assert.Equal(t, "owner-1", record["owner_id"])
}

func TestNew_ContextValueAbsent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("owner_id", ctxKey{}),
	)

	log.InfoContext(context.Background(), "reconciled")

	record := decodeRecord(t, &buf)
	assert.NotContains(t, record, "owner_id")
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatText),
	)

	log.Info("plan switch completed", logger.PlanID("plan_pro_monthly"))
	assert.Contains(t, buf.String(), "plan_id=plan_pro_monthly")
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("yaml"))
	})
}

func TestErrorAttr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))

	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
}
