package perfmetrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CsvHeader defines the CSV header for exchange logging
const CsvHeader = "Timestamp,ExchangeID,Peer,FileName,Outcome,ErrorKind,Bytes,DurationMs\n"

// Record is one served exchange
type Record struct {
	Timestamp  time.Time
	ExchangeID string
	Peer       string
	FileName   string
	Outcome    string
	ErrorKind  string // empty on success
	Bytes      int64
	Duration   time.Duration
}

// LogExchangeToCSV appends rec to the CSV file at path, writing the header
// when the file is created.
func LogExchangeToCSV(path string, rec Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if file exists to determine if we need to write header
	fileExists := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	if !fileExists {
		if _, err := file.WriteString(CsvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	timestamp := rec.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	writer := csv.NewWriter(file)
	record := []string{
		timestamp.UTC().Format(time.RFC3339),
		rec.ExchangeID,
		rec.Peer,
		rec.FileName,
		rec.Outcome,
		rec.ErrorKind,
		strconv.FormatInt(rec.Bytes, 10),
		strconv.FormatFloat(float64(rec.Duration)/float64(time.Millisecond), 'f', 2, 64),
	}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}
