// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	v1 "github.com/vaultcoh/vault/internal/storage/memory/export/v1"
	"github.com/vaultcoh/vault/pkg/core"
)

// Compression names accepted by storage.memory.compress.
const (
	CompressNone = "none"
	CompressGzip = "gzip"
	CompressZstd = "zstd"
)

type compression struct {
	ext  string
	wrap func(io.Writer) (io.WriteCloser, error)
}

func compressionFor(name string) (compression, error) {
	switch strings.ToLower(name) {
	case "", CompressNone:
		return compression{ext: ".json", wrap: func(w io.Writer) (io.WriteCloser, error) { return nopCloser{w}, nil }}, nil
	case CompressGzip:
		return compression{ext: ".json.gz", wrap: func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil }}, nil
	case CompressZstd:
		return compression{ext: ".json.zst", wrap: func(w io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(w) }}, nil
	default:
		return compression{}, fmt.Errorf("unknown compression %q", name)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// exportName derives the export file name from the replay file name, falling
// back to a hash prefix.
func exportName(hash, filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = hash
		if len(base) > 12 {
			base = base[:12]
		}
	}
	return strings.NewReplacer(" ", "_", ":", "_").Replace(base)
}

// exportJSON writes the replay export and returns its path.
func (b *Backend) exportJSON(hash, filename string, r *core.Replay) (string, error) {
	comp, err := compressionFor(b.cfg.Compress)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(b.cfg.OutputDir, exportName(hash, filename)+comp.ext)
	if err := writeExport(path, comp, v1.Build(hash, filename, r)); err != nil {
		return "", err
	}
	return path, nil
}

func writeExport(path string, comp compression, export v1.Export) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing export file: %w", cerr)
		}
	}()

	w, err := comp.wrap(f)
	if err != nil {
		return fmt.Errorf("creating compressor: %w", err)
	}
	if err := json.NewEncoder(w).Encode(export); err != nil {
		_ = w.Close()
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}
	return nil
}

// ReadExport loads an export written by this backend, whatever its compression.
func ReadExport(path string) (v1.Export, error) {
	var export v1.Export
	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("opening gzip export: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("opening zstd export: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return export, fmt.Errorf("decoding export: %w", err)
	}
	return export, nil
}
