package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, time.UTC)

	l.Info("database", "db_migration_success", map[string]any{"db_host": "pg"})
	l.Error("database", "db_migration_failed", errors.New("boom"), nil)
	l.Warn("notify", "publish_retry", errors.New("closed"), nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "success", lines[0]["status"])
	assert.Equal(t, "pg", lines[0]["db_host"])
	assert.NotEmpty(t, lines[0]["ts"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error_message"])

	assert.Equal(t, "warn", lines[2]["level"])
}

func TestLogger_TimestampUsesLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	var buf bytes.Buffer
	New(&buf, loc).Log(map[string]any{"msg": "hello"})

	lines := decodeLines(t, &buf)
	ts, err := time.Parse(time.RFC3339Nano, lines[0]["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLogger_DoesNotMutateFields(t *testing.T) {
	var buf bytes.Buffer
	fields := map[string]any{"order_id": "o1"}
	New(&buf, nil).Info("orders", "order_created", fields)

	assert.Len(t, fields, 1)
}
