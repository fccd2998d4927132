package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// CopyStats summarizes a tree copy.
type CopyStats struct {
	Files int64
	Dirs  int64
	Bytes int64
}

// CopyTree copies every directory and regular file under src into dst,
// recursing into subdirectories and copying files individually. The copy
// either completes or returns the first error; the caller owns cleanup of
// a partial dst. Symlinks and special files are refused.
func CopyTree(ctx context.Context, src, dst string) (CopyStats, error) {
	var files, dirs, bytes atomic.Int64

	info, err := os.Stat(src)
	if err != nil {
		return CopyStats{}, err
	}
	if !info.IsDir() {
		return CopyStats{}, fmt.Errorf("copy tree: %s is not a directory", src)
	}
	if err := os.MkdirAll(dst, DirPerm); err != nil {
		return CopyStats{}, err
	}

	conf := fastwalk.Config{Follow: false}

	// Callbacks run concurrently; each one creates its own parent directory.
	err = fastwalk.Walk(&conf, src, func(path string, d os.DirEntry, err error) error {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}
		if path == src {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, DirPerm); err != nil {
				return err
			}
			dirs.Add(1)
		case d.Type().IsRegular():
			if err := os.MkdirAll(filepath.Dir(target), DirPerm); err != nil {
				return err
			}
			n, err := CopyFile(path, target)
			if err != nil {
				return err
			}
			files.Add(1)
			bytes.Add(n)
		default:
			return fmt.Errorf("copy tree: unsupported file type at %s", rel)
		}
		return nil
	})
	if err != nil {
		return CopyStats{}, err
	}

	return CopyStats{Files: files.Load(), Dirs: dirs.Load(), Bytes: bytes.Load()}, nil
}
