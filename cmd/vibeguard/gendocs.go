package vibeguard

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varalys/vibeguard/internal/heuristics"
	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

// gendocs regenerates the rules section in README.md between the markers
// <!-- BEGIN:RULES --> and <!-- END:RULES -->.
func init() {
	var readme string
	cmd := &cobra.Command{
		Use:    "gendocs",
		Short:  "Regenerate the README rules section",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			b, err := os.ReadFile(readme)
			if err != nil {
				return err
			}
			nb, err := replaceRulesSection(b)
			if err != nil {
				return err
			}
			return os.WriteFile(readme, nb, 0o644)
		},
	}
	cmd.Flags().StringVar(&readme, "readme", "README.md", "file to update")
	rootCmd.AddCommand(cmd)
}

func replaceRulesSection(b []byte) ([]byte, error) {
	start := []byte("<!-- BEGIN:RULES -->")
	end := []byte("<!-- END:RULES -->")
	i := bytes.Index(b, start)
	j := bytes.Index(b, end)
	if i < 0 || j < 0 || j <= i {
		return nil, fmt.Errorf("markers not found")
	}

	byCat := map[types.Category][]string{}
	for _, r := range rules.All() {
		byCat[r.Category] = append(byCat[r.Category], fmt.Sprintf("`%s` (%s)", r.ID, r.Severity))
	}
	for _, h := range heuristics.All() {
		byCat[h.Category] = append(byCat[h.Category], fmt.Sprintf("`%s` (%s, project-wide)", h.ID, h.Severity))
	}
	var out strings.Builder
	out.WriteString("\nRules by category (run `vibeguard rules` for the full, up-to-date list):\n\n")
	for _, c := range types.Categories {
		ids := byCat[c]
		if c == types.CatDependencies {
			ids = append(ids, "`vulnerable-dependency` (package.json)", "`outdated-react` (package.json)")
		}
		if len(ids) == 0 {
			continue
		}
		out.WriteString("- " + string(c) + ":\n")
		out.WriteString("  - " + strings.Join(ids, ", ") + "\n")
	}

	var nb bytes.Buffer
	nb.Write(b[:i])
	nb.Write(start)
	nb.WriteString("\n")
	nb.WriteString(out.String())
	nb.Write(end)
	nb.Write(b[j+len(end):])
	return nb.Bytes(), nil
}
