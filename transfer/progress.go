package transfer

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// CountingReader wraps an io.Reader to track how much was received and how fast
type CountingReader struct {
	Reader      io.Reader
	Transferred int64
	StartTime   time.Time
	LastUpdate  time.Time
	OnProgress  func(transferred int64, speed float64, elapsed time.Duration)
}

func (cr *CountingReader) Read(p []byte) (n int, err error) {
	if cr.StartTime.IsZero() {
		cr.StartTime = time.Now()
		cr.LastUpdate = cr.StartTime
	}

	n, err = cr.Reader.Read(p)
	if n > 0 {
		cr.Transferred += int64(n)

		now := time.Now()
		if cr.OnProgress != nil && now.Sub(cr.LastUpdate) >= 100*time.Millisecond {
			cr.OnProgress(cr.Transferred, cr.Speed(), now.Sub(cr.StartTime))
			cr.LastUpdate = now
		}
	}
	return
}

// Elapsed returns the time since the first read
func (cr *CountingReader) Elapsed() time.Duration {
	if cr.StartTime.IsZero() {
		return 0
	}
	return time.Since(cr.StartTime)
}

// Speed returns the average speed in bytes per second
func (cr *CountingReader) Speed() float64 {
	elapsed := cr.Elapsed()
	if elapsed <= 0 {
		return 0
	}
	return float64(cr.Transferred) / elapsed.Seconds()
}

// Backoff bounds for RetryWithBackoff
var (
	BaseRetryDelay = 200 * time.Millisecond
	MaxRetryDelay  = 5 * time.Second
)

// RetryWithBackoff runs fn up to attempts times with exponential backoff and jitter.
// It stops early when ctx is done.
func RetryWithBackoff(ctx context.Context, operation string, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := BaseRetryDelay * time.Duration(1<<uint(attempt-1))
		if delay > MaxRetryDelay {
			delay = MaxRetryDelay
		}
		// jitter (±20%)
		delay = time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation %s cancelled after %d attempts: %w", operation, attempt, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w", operation, attempts, err)
}
