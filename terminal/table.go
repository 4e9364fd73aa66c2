package terminal

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// TransferSummary is what the client reports after a request
type TransferSummary struct {
	Address  string
	FileName string
	Output   string
	Bytes    int64
	Elapsed  time.Duration
	Speed    float64 // bytes per second
	Status   string
}

// PrintTransferSummary renders summary as a two-column table
func PrintTransferSummary(w io.Writer, summary TransferSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row = tw.CellConfig{
			Alignment: tw.CellAlignment{
				Global: tw.AlignLeft,
			},
		}
	})

	output := summary.Output
	if output == "" {
		output = "-"
	}

	rows := [][]string{
		{"Server", summary.Address},
		{"File", summary.FileName},
		{"Saved to", output},
		{"Size", formatSize(uint64(summary.Bytes))},
		{"Time", summary.Elapsed.Round(time.Millisecond).String()},
		{"Speed", formatSize(uint64(summary.Speed)) + "/s"},
		{"Status", summary.Status},
	}
	for _, row := range rows {
		table.Append(row)
	}
	return table.Render()
}

// formatSize formats a file size in human-readable format
func formatSize(size uint64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := uint64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
