package transfer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// LoadFile opens path in read-only mode and reads the whole file into memory.
// The handle is closed on every path. Errors are returned as *TransferError.
func LoadFile(path string) (data []byte, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewTransferError("open", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = NewTransferError("close", path, cerr)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, NewTransferError("stat", path, err)
	}
	if info.IsDir() {
		return nil, &TransferError{Kind: KindIO, Op: "read", Path: path, Err: fmt.Errorf("is a directory")}
	}

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, NewTransferError("read", path, err)
	}
	return data, nil
}

// ResolvePath maps a requested filename to a filesystem path. With an empty baseDir
// the name is used as-is, relative to the working directory. Relative names are joined
// under baseDir otherwise. Nothing is sanitized: ".." segments and absolute names pass.
// An empty name stays empty so it never resolves to baseDir itself.
func ResolvePath(baseDir, name string) string {
	if baseDir == "" || name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(baseDir, name)
}

// EscapesBase reports whether resolved points outside baseDir
func EscapesBase(baseDir, resolved string) bool {
	if baseDir == "" {
		baseDir = "."
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return true
	}
	target, err := filepath.Abs(resolved)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CloseAll closes every closer and combines the failures
func CloseAll(closers ...io.Closer) error {
	var result *multierror.Error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
