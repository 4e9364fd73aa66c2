package perfmetrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogExchangeToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "exchanges.csv")

	first := Record{
		Timestamp:  time.Date(2026, 10, 16, 9, 36, 0, 0, time.UTC),
		ExchangeID: "a1",
		Peer:       "127.0.0.1:50000",
		FileName:   "greeting.txt",
		Outcome:    "sent",
		Bytes:      11,
		Duration:   1500 * time.Microsecond,
	}
	second := Record{
		ExchangeID: "b2",
		Peer:       "127.0.0.1:50001",
		FileName:   "missing, with comma.txt",
		Outcome:    "failed",
		ErrorKind:  "not_found",
	}
	require.NoError(t, LogExchangeToCSV(path, first))
	require.NoError(t, LogExchangeToCSV(path, second))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Timestamp", "ExchangeID", "Peer", "FileName", "Outcome", "ErrorKind", "Bytes", "DurationMs"}, rows[0])
	require.Equal(t, []string{"2026-10-16T09:36:00Z", "a1", "127.0.0.1:50000", "greeting.txt", "sent", "", "11", "1.50"}, rows[1])
	require.Equal(t, "missing, with comma.txt", rows[2][3])
	require.Equal(t, "not_found", rows[2][5])
}
