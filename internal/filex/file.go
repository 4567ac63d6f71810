package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadLimited reads at most limit+1 bytes of the file at path, so callers can
// tell an oversized file from one that is exactly at the limit without
// loading all of it. It also returns the file's base name.
func ReadLimited(path string, limit int64) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	return data, filepath.Base(path), nil
}
