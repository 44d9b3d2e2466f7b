package clickhouse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// candlesSchema is read from disk because the migrations package imports
// this one.
var candlesSchema = filepath.Join("..", "migrations", "clickhouse", "001_candles.sql")

// newTestConn starts ClickHouse with an empty candles table.
func newTestConn(t *testing.T) *Conn {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env:          map[string]string{"CLICKHOUSE_DB": "gradlab", "CLICKHOUSE_USER": "default"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Application: Ready for connections").WithStartupTimeout(90*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	require.NoError(t, err, "start clickhouse")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)
	conn, err := NewConn(ctx, fmt.Sprintf("clickhouse://default@%s/gradlab", endpoint))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ddl, err := os.ReadFile(candlesSchema)
	require.NoError(t, err)
	require.NoError(t, conn.Exec(ctx, singleStatement(string(ddl))), "create candles table")
	return conn
}

// singleStatement drops comment lines and the trailing semicolon.
func singleStatement(sql string) string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(b.String()), ";")
}
