package vibeguard

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/cache"
	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/report"
)

var (
	flagExportOut  string
	flagExportCopy bool
	flagExportLast bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a full audit as a Markdown report",
		RunE:  runExport,
	}
	addSourceFlags(cmd)
	cmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&flagExportCopy, "copy", false, "copy the report to the clipboard")
	cmd.Flags().BoolVar(&flagExportLast, "last", false, "export the most recent stored audit instead of rescanning")
	cmd.Flags().StringVar(&flagProject, "project", "", "project id recorded in the audit (default: directory name)")
	cmd.Flags().StringVar(&flagAuditID, "id", "", "audit id (default: generated)")
	rootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(flagPath)
	if err != nil {
		return err
	}
	var a disclosure.FullAudit
	if flagExportLast {
		a, err = cache.LoadAudit(s.root)
		if err != nil {
			return fmt.Errorf("no stored audit for %s (run `vibeguard audit` first): %w", s.root, err)
		}
	} else {
		a, _, err = runFullAudit(cmd, s)
		if err != nil {
			return err
		}
	}
	md := report.ExportMarkdown(a)

	wrote := false
	if flagExportOut != "" {
		if err := os.WriteFile(flagExportOut, []byte(md), 0o600); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(os.Stderr, "Wrote", flagExportOut)
		wrote = true
	}
	if flagExportCopy {
		if err := clipboard.WriteAll(md); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		_, _ = fmt.Fprintln(os.Stderr, "Report copied to clipboard.")
		wrote = true
	}
	if !wrote {
		_, err = fmt.Fprint(cmd.OutOrStdout(), md)
	}
	return err
}
