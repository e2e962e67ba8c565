package vibeguard

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/report"
)

var flagScanJSON bool

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Free scan: issue counts, categories and the top issue",
		Long:  "Scan runs the full audit engine but only reports the free view: counts per severity, affected categories and the title of the most severe issue. Use `vibeguard audit` for locations and fixes.",
		RunE:  runScan,
	}
	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&flagScanJSON, "json", false, "emit JSON")
	rootCmd.AddCommand(cmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(flagPath)
	if err != nil {
		return err
	}
	if !flagScanJSON {
		_, _ = fmt.Fprintf(os.Stderr, "Scanning %s...\n", s.root)
	}
	res, err := s.run(cmd.Context())
	if err != nil {
		return err
	}
	p := disclosure.ToPartialScan(res.Findings, res.ScannedAt)
	out := cmd.OutOrStdout()
	if flagScanJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	report.PrintPartial(out, p, s.printOptions(out, res))
	return nil
}
