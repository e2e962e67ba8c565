// Package core provides a small, stable facade over VibeGuard's internal engine
// for external integrations. It re-exports a narrow API surface so that other
// programs can depend on a stable import path without importing internal
// implementation packages.
//
// Example:
//
//	files, manifest, err := core.LoadDir(ctx, ".")
//	if err != nil { /* handle */ }
//	audit, err := core.Audit(files, manifest, "", "my-project")
//	if err != nil { /* handle */ }
//	fmt.Print(core.ExportMarkdown(audit))
package core
