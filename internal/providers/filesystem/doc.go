// Package filesystem provides the file operations profile storage is built on.
//
// This package is organized into specialized modules:
//   - operations: Atomic writes, byte-identical copies, verified removal
//   - directory: Recursive tree copy using fastwalk
//   - formats: JSON encoding (sonic) and legacy YAML/TOML/JSON stores
//   - archives: Profile export/import as tar with zstd or gzip compression
//
// All writes go through WriteFileAtomic, so a crash mid-write leaves either
// the previous file or the new one, never a truncated mix.
//
// Example Usage:
//
//	if err := filesystem.WriteJSON(path, registry, 0o644); err != nil {
//	    return err
//	}
//	stats, err := filesystem.CopyTree(ctx, srcDir, dstDir)
package filesystem
