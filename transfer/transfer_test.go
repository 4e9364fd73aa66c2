package transfer

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	data, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestLoadFileBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	want := make([]byte, 256*1024)
	for i := range want {
		want[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, want, 0644))

	data, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, data)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.txt"))
		var te *TransferError
		require.ErrorAs(t, err, &te)
		require.Equal(t, KindNotFound, te.Kind)
		require.Equal(t, "open", te.Op)
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("Directory", func(t *testing.T) {
		_, err := LoadFile(dir)
		require.Equal(t, KindIO, Classify(err))
	})

	t.Run("Empty name", func(t *testing.T) {
		_, err := LoadFile("")
		require.Equal(t, KindNotFound, Classify(err))
	})

	t.Run("Empty name under base", func(t *testing.T) {
		_, err := LoadFile(ResolvePath(dir, ""))
		require.Equal(t, KindNotFound, Classify(err))
	})

	t.Run("Permission denied", func(t *testing.T) {
		path := filepath.Join(dir, "secret.txt")
		err := NewTransferError("open", path, &fs.PathError{Op: "open", Path: path, Err: syscall.EACCES})
		require.Equal(t, KindPermission, err.Kind)
		require.ErrorIs(t, err, fs.ErrPermission)
	})

	t.Run("Unreadable file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		path := filepath.Join(dir, "secret.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0000))
		_, err := LoadFile(path)
		require.Equal(t, KindPermission, Classify(err))
	})
}

func TestClassify(t *testing.T) {
	require.Equal(t, KindNotFound, Classify(fs.ErrNotExist))
	require.Equal(t, KindPermission, Classify(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}))
	require.Equal(t, KindSocket, Classify(&net.OpError{Op: "write", Net: "tcp", Err: errors.New("broken pipe")}))
	require.Equal(t, KindSocket, Classify(net.ErrClosed))
	require.Equal(t, KindIO, Classify(io.ErrUnexpectedEOF))
	require.Equal(t, KindSocket, Classify(NewSocketError("send", io.EOF)))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "not_found", KindNotFound.String())
	require.Equal(t, "socket", KindSocket.String())
	require.Equal(t, "kind(9)", Kind(9).String())
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		request string
		want    string
	}{
		{name: "Working directory", base: "", request: "greeting.txt", want: "greeting.txt"},
		{name: "Under base", base: "/srv/files", request: "a/b.txt", want: "/srv/files/a/b.txt"},
		{name: "Traversal is kept", base: "/srv/files", request: "../etc/passwd", want: "/srv/etc/passwd"},
		{name: "Absolute is kept", base: "/srv/files", request: "/etc/hosts", want: "/etc/hosts"},
		{name: "Empty name", base: "/srv/files", request: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, filepath.FromSlash(tt.want), ResolvePath(tt.base, tt.request))
		})
	}
}

func TestEscapesBase(t *testing.T) {
	base := t.TempDir()
	require.False(t, EscapesBase(base, filepath.Join(base, "a.txt")))
	require.False(t, EscapesBase(base, filepath.Join(base, "..data")))
	require.True(t, EscapesBase(base, ResolvePath(base, "../a.txt")))
	require.True(t, EscapesBase(base, "/etc/hosts"))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseAll(t *testing.T) {
	closed := 0
	ok := closerFunc(func() error { closed++; return nil })
	bad := closerFunc(func() error { closed++; return errors.New("close failed") })

	require.NoError(t, CloseAll(ok, nil, ok))
	err := CloseAll(bad, ok, bad)
	require.Error(t, err)
	require.Equal(t, 5, closed)
	require.Contains(t, err.Error(), "2 errors occurred")
}

func TestCountingReader(t *testing.T) {
	cr := &CountingReader{Reader: strings.NewReader(strings.Repeat("x", 4096))}
	data, err := io.ReadAll(cr)
	require.NoError(t, err)
	require.Len(t, data, 4096)
	require.Equal(t, int64(4096), cr.Transferred)
	require.False(t, cr.StartTime.IsZero())
}

func TestRetryWithBackoff(t *testing.T) {
	BaseRetryDelay = time.Millisecond
	t.Cleanup(func() { BaseRetryDelay = 200 * time.Millisecond })

	calls := 0
	err := RetryWithBackoff(context.Background(), "dial", 3, func() error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	boom := errors.New("refused")
	calls = 0
	err = RetryWithBackoff(context.Background(), "dial", 2, func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, "dial", 5, func() error { return errors.New("refused") })
	require.ErrorIs(t, err, context.Canceled)
}
