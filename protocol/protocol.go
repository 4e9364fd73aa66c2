package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Wire defaults of the file transfer exchange
const (
	DefaultHost       = "localhost"
	DefaultPort       = 8080
	RequestBufferSize = 1024
)

// FileNotFoundMessage is sent instead of the file on every failure, whatever the cause.
const FileNotFoundMessage = "File NOT found on the Server"

// FileNotFoundResponse returns the failure message as UTF-8 bytes
func FileNotFoundResponse() []byte {
	return []byte(FileNotFoundMessage)
}

// IsFileNotFound reports whether a response payload is the failure message.
// A file whose content is exactly the message cannot be told apart from a failure.
func IsFileNotFound(payload []byte) bool {
	return bytes.Equal(payload, FileNotFoundResponse())
}

// ReadFilename performs a single read of at most size bytes and returns the raw bytes
// as the requested filename. Anything the peer sent beyond size bytes is ignored.
func ReadFilename(r io.Reader, size int) (string, error) {
	if size <= 0 {
		size = RequestBufferSize
	}
	buf := make([]byte, size)
	n, err := r.Read(buf)
	// EOF with nothing read is an empty filename, the lookup reports it as missing
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read filename: %w", err)
	}
	return string(buf[:n]), nil
}

// WriteAll writes data until every byte is accepted by w or an error occurs.
// It returns the number of bytes written.
func WriteAll(w io.Writer, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := w.Write(data[written:])
		written += n
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
