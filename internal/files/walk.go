package files

import (
	"context"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/varalys/vibeguard/internal/ignore"
	"github.com/varalys/vibeguard/internal/types"
)

// DefaultMaxBytes is the file size limit applied when Config.MaxBytes is unset.
const DefaultMaxBytes int64 = 1 << 20

// ManifestName is the dependency manifest read from the scan root.
const ManifestName = "package.json"

// Config selects which files of a working tree are loaded.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	DefaultExcludes bool
}

func (c Config) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

// Source is a loaded project: its text files and, if present, the raw
// contents of the root package.json.
type Source struct {
	Files    []types.File
	Manifest *string
}

// Walk traverses the working tree and invokes handle for each eligible file.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(path string, data []byte)) error {
	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			// Default exclude directories
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(name) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		rel = filepath.ToSlash(rel)
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if ign.Match(rel) {
			return nil
		}
		info, _ := d.Info()
		if info != nil && info.Size() > cfg.maxBytes() {
			return nil
		}
		// Cheap extension-based skips
		lower := strings.ToLower(rel)
		if cfg.DefaultExcludes && isDefaultFileExcluded(lower) {
			return nil
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		// Inline ignore directive
		if strings.Contains(string(b), "vibeguard:ignore-file") {
			return nil
		}
		if looksBinary(b) || looksNonTextMIME(rel, b) {
			return nil
		}
		handle(rel, b)
		return nil
	})
}

// Load walks cfg.Root, applying the root .vibeguardignore, and returns the
// files in lexical path order.
func Load(ctx context.Context, cfg Config) (Source, error) {
	ign, _ := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	var src Source
	err := Walk(ctx, cfg, ign, func(p string, data []byte) {
		src.Files = append(src.Files, types.File{Path: p, Content: string(data)})
	})
	if err != nil {
		return Source{}, err
	}
	if b, err := os.ReadFile(filepath.Join(cfg.Root, ManifestName)); err == nil {
		m := string(b)
		src.Manifest = &m
	}
	return src, nil
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// looksNonTextMIME uses the file extension and a tiny content sniff to skip
// clearly non-text content (e.g., images) in addition to NUL-byte detection.
func looksNonTextMIME(path string, b []byte) bool {
	// fast-path by extension
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	// basic header sniff for common binaries
	if len(b) >= 4 {
		// PNG signature
		if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
			return true
		}
		// ZIP (PK) header
		if b[0] == 'P' && b[1] == 'K' {
			return true
		}
	}
	return false
}
