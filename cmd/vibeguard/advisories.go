package vibeguard

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "advisories",
		Short: "List the known-vulnerable packages checked in package.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(flagPath)
			if err != nil {
				return err
			}
			p, err := s.advisoryProvider()
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("PACKAGE", "SEVERITY", "CVE", "FIXED IN")
			for _, name := range p.Names() {
				a, _ := p.Lookup(name)
				if err := table.Append([]string{a.Package, string(a.Severity), a.CVE, a.FixVersion}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "project path (for its config file)")
	cmd.Flags().StringVar(&flagAdvisories, "advisories", "", "YAML file of extra advisories consulted before the built-in table")
	rootCmd.AddCommand(cmd)
}
