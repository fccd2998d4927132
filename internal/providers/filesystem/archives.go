package filesystem

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ManifestName is the archive entry describing an exported profile.
const ManifestName = "cuedeck-manifest.json"

// ManifestFormat is the current export archive format version.
const ManifestFormat = 1

// maxEntrySize bounds a single extracted file.
const maxEntrySize = 64 << 20

// DefaultExcludes are never written into an export archive.
var DefaultExcludes = []string{"**/*.tmp", "**/.DS_Store", "**/Thumbs.db"}

// ErrUnsafeArchive is returned for entries that would escape the destination.
var ErrUnsafeArchive = errors.New("unsafe archive entry")

// Manifest describes the profile packed into an export archive.
type Manifest struct {
	Format      int       `json:"format"`
	ID          string    `json:"id"`
	Profile     string    `json:"profile"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Files       []string  `json:"files"`
}

// ExportArchive writes the manifest and every file under srcDir not
// matching an exclude pattern to w as a zstd-compressed tar.
func ExportArchive(ctx context.Context, srcDir string, w io.Writer, manifest Manifest, excludes []string) (Manifest, error) {
	files, err := collectFiles(ctx, srcDir, excludes)
	if err != nil {
		return Manifest{}, err
	}
	manifest.Format = ManifestFormat
	manifest.Files = files
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = time.Now().UTC()
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return Manifest{}, fmt.Errorf("zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	if err := writeArchive(ctx, tw, srcDir, manifest); err != nil {
		tw.Close()
		zw.Close()
		return Manifest{}, err
	}
	if err := tw.Close(); err != nil {
		zw.Close()
		return Manifest{}, err
	}
	if err := zw.Close(); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

func writeArchive(ctx context.Context, tw *tar.Writer, srcDir string, manifest Manifest) error {
	data, err := MarshalJSON(manifest)
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    ManifestName,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: manifest.CreatedAt,
	}); err != nil {
		return err
	}
	if _, err := tw.Write(data); err != nil {
		return err
	}

	for _, rel := range manifest.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(tw, filepath.Join(srcDir, filepath.FromSlash(rel)), rel); err != nil {
			return err
		}
	}
	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = "profile/" + name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// collectFiles walks srcDir and returns sorted slash-separated relative
// paths of regular files. fastwalk callbacks are concurrent, so results
// are gathered under a mutex and sorted for a stable archive layout.
func collectFiles(ctx context.Context, srcDir string, excludes []string) ([]string, error) {
	var mu sync.Mutex
	files := []string{}

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, srcDir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if Excluded(rel, excludes) {
			return nil
		}

		mu.Lock()
		files = append(files, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Excluded reports whether the slash-separated rel matches any pattern.
func Excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// ExtractArchive unpacks a profile archive into destDir and returns its
// manifest. Compression (zstd, gzip, or none) is detected from content.
func ExtractArchive(ctx context.Context, archivePath, destDir string) (Manifest, error) {
	mtype, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return Manifest{}, err
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return Manifest{}, err
	}
	defer file.Close()

	var r io.Reader
	switch {
	case mtype.Is("application/zstd"):
		zr, err := zstd.NewReader(file)
		if err != nil {
			return Manifest{}, fmt.Errorf("zstd failed: %w", err)
		}
		defer zr.Close()
		r = zr
	case mtype.Is("application/gzip"):
		gr, err := gzip.NewReader(file)
		if err != nil {
			return Manifest{}, fmt.Errorf("gzip failed: %w", err)
		}
		defer gr.Close()
		r = gr
	case mtype.Is("application/x-tar"):
		r = file
	default:
		return Manifest{}, fmt.Errorf("unsupported archive type %s", mtype.String())
	}

	return extractTar(ctx, tar.NewReader(r), destDir)
}

func extractTar(ctx context.Context, tr *tar.Reader, destDir string) (Manifest, error) {
	var manifest Manifest
	var sawManifest bool
	root := filepath.Clean(destDir)

	for {
		if err := ctx.Err(); err != nil {
			return Manifest{}, err
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("read archive: %w", err)
		}

		if header.Name == ManifestName {
			data, err := io.ReadAll(io.LimitReader(tr, maxEntrySize))
			if err != nil {
				return Manifest{}, err
			}
			if err := UnmarshalJSON(data, &manifest); err != nil {
				return Manifest{}, fmt.Errorf("decode manifest: %w", err)
			}
			sawManifest = true
			continue
		}

		name, ok := strings.CutPrefix(header.Name, "profile/")
		if !ok {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrUnsafeArchive, header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, DirPerm); err != nil {
				return Manifest{}, err
			}
		case tar.TypeReg:
			if header.Size > maxEntrySize {
				return Manifest{}, fmt.Errorf("%w: %s exceeds size limit", ErrUnsafeArchive, header.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), DirPerm); err != nil {
				return Manifest{}, err
			}
			if err := writeEntry(target, tr); err != nil {
				return Manifest{}, err
			}
		default:
			return Manifest{}, fmt.Errorf("%w: %s has unsupported type", ErrUnsafeArchive, header.Name)
		}
	}

	if !sawManifest {
		return Manifest{}, fmt.Errorf("archive has no %s", ManifestName)
	}
	return manifest, nil
}

func writeEntry(target string, r io.Reader) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(r, maxEntrySize)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
