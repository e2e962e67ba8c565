package vibeguard

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Update baseline from current audit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(flagPath)
			if err != nil {
				return err
			}
			a, _, err := runFullAudit(cmd, s)
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(s.resolve(flagBaseline), a.Findings); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated (%d findings).\n", len(a.Findings))
			return nil
		},
	}
	addSourceFlags(update)
	update.Flags().StringVar(&flagBaseline, "baseline", defaultBaselineFile, "baseline file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
