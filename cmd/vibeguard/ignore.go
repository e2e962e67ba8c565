package vibeguard

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/files"
	"github.com/varalys/vibeguard/internal/ignore"
)

var flagIgnoreGenerated bool

func init() {
	cmd := &cobra.Command{
		Use:   "ignore [pattern...]",
		Short: "Add patterns to .vibeguardignore",
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := append([]string{}, args...)
			if flagIgnoreGenerated {
				patterns = append(patterns, files.DefaultGeneratedIgnores()...)
			}
			if len(patterns) == 0 {
				return fmt.Errorf("no patterns given (pass patterns or --generated)")
			}
			root, err := filepath.Abs(flagPath)
			if err != nil {
				return err
			}
			for _, p := range patterns {
				if err := files.AppendIgnore(root, p); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", filepath.Join(root, ignore.FileName))
			return nil
		},
	}
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "project path")
	cmd.Flags().BoolVar(&flagIgnoreGenerated, "generated", false, "add common generated-file patterns")
	rootCmd.AddCommand(cmd)
}
