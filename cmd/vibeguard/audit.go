package vibeguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/aggregate"
	"github.com/varalys/vibeguard/internal/audit"
	"github.com/varalys/vibeguard/internal/cache"
	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/engine"
	"github.com/varalys/vibeguard/internal/logging"
	"github.com/varalys/vibeguard/internal/report"
	"github.com/varalys/vibeguard/internal/types"
)

const defaultBaselineFile = "vibeguard.baseline.json"

var (
	flagAuditJSON    bool
	flagAuditSARIF   bool
	flagAuditTable   bool
	flagAuditDetails bool
	flagFailOn       string
	flagBaseline     string
	flagProject      string
	flagAuditID      string
	flagNoHistory    bool
	flagUploadURL    string
	flagUploadToken  string
	flagNoUploadMeta bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Full audit: every finding with location, impact and fix",
		RunE:  runAudit,
	}
	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&flagAuditJSON, "json", false, "emit the full audit as JSON")
	cmd.Flags().BoolVar(&flagAuditSARIF, "sarif", false, "emit SARIF 2.1.0")
	cmd.Flags().BoolVar(&flagAuditTable, "table", false, "output a table (default)")
	cmd.Flags().BoolVar(&flagAuditDetails, "details", false, "print every field of every finding")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when a finding is at or above critical|high|medium|low|info, or none (default high)")
	cmd.Flags().StringVar(&flagBaseline, "baseline", defaultBaselineFile, "baseline file; findings recorded there are not reported")
	cmd.Flags().StringVar(&flagProject, "project", "", "project id recorded in the audit (default: directory name)")
	cmd.Flags().StringVar(&flagAuditID, "id", "", "audit id (default: generated)")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not append this audit to the scan history")
	cmd.Flags().StringVar(&flagUploadURL, "upload", "", "POST the audit (JSON) to this URL afterwards")
	cmd.Flags().StringVar(&flagUploadToken, "upload-token", "", "Bearer token for upload auth")
	cmd.Flags().BoolVar(&flagNoUploadMeta, "no-upload-metadata", false, "do not include repo/commit/branch in upload envelope")
	rootCmd.AddCommand(cmd)
}

// runFullAudit runs the engine and wraps the result as a full audit.
func runFullAudit(cmd *cobra.Command, s settings) (disclosure.FullAudit, engine.Result, error) {
	res, err := s.run(cmd.Context())
	if err != nil {
		return disclosure.FullAudit{}, res, err
	}
	id := flagAuditID
	if id == "" {
		id = uuid.NewString()
	}
	project := flagProject
	if project == "" {
		project = filepath.Base(s.root)
	}
	a, err := disclosure.ToFullAudit(res.Findings, id, project, res.ScannedAt, res.ScannedAt.Add(res.Duration))
	if err != nil {
		return a, res, err
	}
	if err := cache.SaveAudit(s.root, a); err != nil {
		logging.Logger.Warnw("could not store last audit", "root", s.root, "error", err)
	}
	return a, res, nil
}

func runAudit(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(flagPath)
	if err != nil {
		return err
	}
	quiet := flagAuditJSON || flagAuditSARIF
	if !quiet {
		_, _ = fmt.Fprintf(os.Stderr, "Auditing %s...\n", s.root)
	}
	a, res, err := runFullAudit(cmd, s)
	if err != nil {
		return err
	}

	baselinePath := s.resolve(flagBaseline)
	base, err := report.LoadBaseline(baselinePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	newFindings := report.FilterNewFindings(a.Findings, base)
	if newFindings == nil {
		newFindings = []types.Finding{}
	} // no `null` in JSON
	view := a
	view.Findings = newFindings
	view.Summary = aggregate.Summarize(newFindings)

	out := cmd.OutOrStdout()
	switch {
	case flagAuditSARIF:
		if err := report.WriteSARIF(out, view, version); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagAuditJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return err
		}
	case flagAuditDetails:
		report.PrintDetails(out, view.Findings, s.printOptions(out, res))
	default:
		report.PrintTable(out, view.Findings, s.printOptions(out, res))
	}
	if baselined := len(a.Findings) - len(newFindings); baselined > 0 && !quiet {
		_, _ = fmt.Fprintf(os.Stderr, "%d finding(s) suppressed by %s\n", baselined, flagBaseline)
	}

	if !flagNoHistory {
		rec := audit.CreateScanRecord(s.root, a.ID, a.Findings, newFindings, res.FilesScanned, res.Duration, flagBaseline)
		rec.Revision = flagRev
		rec.FilesFailed = res.FilesFailed
		if err := audit.NewAuditLog(s.root).LogScan(rec); err != nil {
			logging.Logger.Warnw("could not write scan history", "root", s.root, "error", err)
		}
	}

	// Optional upload step: do not fail the audit on upload errors
	if flagUploadURL != "" {
		if err := uploadAudit(s.root, flagUploadURL, flagUploadToken, flagNoUploadMeta, view); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "upload warning:", err)
		}
	}

	failOn := failThreshold(flagFailOn, s.local.FailOn, s.global.FailOn)
	if failOn != "none" && report.ShouldFail(newFindings, failOn) {
		return errThreshold
	}
	return nil
}
