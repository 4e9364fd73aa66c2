package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"filexfer/config"
	"filexfer/logger"
	"filexfer/protocol"
	"filexfer/transfer"
)

// Response is what the listener sent back for one filename
type Response struct {
	Data     []byte
	NotFound bool // payload equals protocol.FileNotFoundMessage
	Bytes    int64
	Elapsed  time.Duration
	Speed    float64 // bytes per second
}

// Fetch connects to the listener, sends filename and reads until the listener
// closes the connection.
func Fetch(ctx context.Context, cfg *config.ClientConfig, filename string) (*Response, error) {
	if cfg == nil {
		cfg = config.DefaultClientConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.WithComponent("client")

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var conn net.Conn
	dialer := &net.Dialer{}
	err := transfer.RetryWithBackoff(ctx, "dial "+cfg.Address, cfg.Retries, func() error {
		c, err := dialer.DialContext(ctx, "tcp", cfg.Address)
		if err != nil {
			log.Debug().Err(err).Str("addr", cfg.Address).Msg("dial failed")
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := protocol.WriteAll(conn, []byte(filename)); err != nil {
		return nil, fmt.Errorf("failed to send filename: %w", err)
	}

	reader := &transfer.CountingReader{Reader: conn}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	resp := &Response{
		Data:     data,
		NotFound: protocol.IsFileNotFound(data),
		Bytes:    reader.Transferred,
		Elapsed:  reader.Elapsed(),
		Speed:    reader.Speed(),
	}
	log.Debug().Str("file", filename).Int64("bytes", resp.Bytes).Bool("not_found", resp.NotFound).Msg("response received")
	return resp, nil
}
