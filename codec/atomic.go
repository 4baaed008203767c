package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"

	"github.com/chaos-io/bgswap/apperr"
)

// WriteFileAtomic creates path by writing into a temporary file in the same
// directory and renaming it into place, so a failed run never leaves a
// truncated output behind.
//
// Errors from write are returned as they are; file system errors wrap
// apperr.ErrOutputWrite.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrOutputWrite, path, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+ksuid.New().String()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrOutputWrite, path, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrOutputWrite, path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrOutputWrite, path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrOutputWrite, path, err)
	}
	return nil
}
