package vibeguard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/detectors"
	"github.com/varalys/vibeguard/internal/heuristics"
	"github.com/varalys/vibeguard/internal/report"
	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

var flagRulesIDs bool

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List static rules and project heuristics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if flagRulesIDs {
				for _, id := range rules.IDs() {
					_, _ = fmt.Fprintln(out, id)
				}
				return nil
			}
			table := tablewriter.NewWriter(out)
			table.Header("ID", "KIND", "CATEGORY", "SEVERITY", "CONFIDENCE")
			for _, r := range rules.All() {
				if err := table.Append([]string{r.ID, "static", string(r.Category), string(r.Severity), confidence(r.Confidence)}); err != nil {
					return err
				}
			}
			for _, h := range heuristics.All() {
				if err := table.Append([]string{h.ID, "heuristic", string(h.Category), string(h.Severity), confidence(h.Confidence)}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&flagRulesIDs, "ids", false, "print static rule IDs only")
	rootCmd.AddCommand(cmd)

	test := &cobra.Command{
		Use:   "test-rule <id>",
		Short: "Run one static rule against text from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return testRule(cmd.InOrStdin(), cmd.OutOrStdout(), args[0])
		},
	}
	test.Long = "Available rules: " + strings.Join(rules.IDs(), ", ")
	rootCmd.AddCommand(test)
}

func testRule(in io.Reader, out io.Writer, id string) error {
	selected := rules.Filter(rules.All(), id, "")
	if len(selected) == 0 {
		return fmt.Errorf("unknown rule id: %s (available: %s)", id, strings.Join(rules.IDs(), ", "))
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	s := detectors.New(detectors.Options{Rules: selected, FileChecks: []detectors.FileCheck{}})
	fs, err := s.ScanFile(types.File{Path: "stdin", Content: string(data)})
	if err != nil {
		return err
	}
	// Pretty print using current table renderer
	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !report.ColorEnabled(f, flagNoColor)
	}
	report.PrintTable(out, fs, report.PrintOptions{NoColor: noColor})
	return nil
}

func confidence(c float64) string {
	return fmt.Sprintf("%.0f%%", c*100)
}
