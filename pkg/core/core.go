package core

import (
	"context"

	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/files"
	"github.com/varalys/vibeguard/internal/report"
	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	File        = types.File
	Finding     = types.Finding
	Severity    = types.Severity
	Category    = types.Category
	PartialScan = disclosure.PartialScan
	FullAudit   = disclosure.FullAudit
	Options     = engine.Options
	Result      = engine.Result
)

// Scan runs every scanner with default options and returns the free view.
// A nil manifest skips the dependency scan.
func Scan(files []File, manifest *string) PartialScan {
	return engine.New(Options{}).Scan(files, manifest)
}

// Audit runs every scanner with default options and returns the full view.
// A blank id is replaced by a generated one.
func Audit(files []File, manifest *string, id, projectID string) (FullAudit, error) {
	return engine.New(Options{}).Audit(files, manifest, id, projectID)
}

// Run exposes the engine with caller-provided options.
func Run(opts Options, files []File, manifest *string) Result {
	return engine.New(opts).Run(files, manifest)
}

// ExportMarkdown renders a full audit as a Markdown report.
func ExportMarkdown(a FullAudit) string { return report.ExportMarkdown(a) }

// LoadDir reads the text files under root with the default excludes, plus
// root/package.json when present.
func LoadDir(ctx context.Context, root string) ([]File, *string, error) {
	src, err := files.Load(ctx, files.Config{Root: root, DefaultExcludes: true})
	if err != nil {
		return nil, nil, err
	}
	return src.Files, src.Manifest, nil
}

// RuleIDs returns the IDs of the built-in static rules.
// This is exposed for convenience to avoid importing internals directly.
func RuleIDs() []string { return rules.IDs() }
