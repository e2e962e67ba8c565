package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/varalys/vibeguard/internal/aggregate"
	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
}

var (
	sevCriticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	sevHighStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sevInfoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headingStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ColorEnabled reports whether output to f should be colored.
func ColorEnabled(f *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func colorSeverity(s types.Severity) string {
	label := string(s)
	switch s {
	case types.SevCritical:
		return sevCriticalStyle.Render(label)
	case types.SevHigh:
		return sevHighStyle.Render(label)
	case types.SevMedium:
		return sevMedStyle.Render(label)
	case types.SevLow:
		return sevLowStyle.Render(label)
	default:
		return sevInfoStyle.Render(label)
	}
}

func location(f types.Finding) string {
	switch {
	case f.File == "":
		return "-"
	case f.Line > 0:
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	default:
		return f.File
	}
}

// PrintTable writes findings in their given order as a bordered table
// followed by a summary footer.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("SEVERITY", "CATEGORY", "LOCATION", "TITLE", "CONFIDENCE")
		for _, f := range findings {
			sev := string(f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity)
			}
			_ = table.Append([]string{sev, string(f.Category), location(f), f.Title, fmt.Sprintf("%.0f%%", f.Confidence*100)})
		}
		_ = table.Render()
	}
	printFooter(w, aggregate.Summarize(findings), opts)
}

func printFooter(w io.Writer, s aggregate.Summary, opts PrintOptions) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (critical: %d, high: %d, medium: %d, low: %d, info: %d)\n",
		s.Total, s.Critical, s.High, s.Medium, s.Low, s.Info)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
}

// PrintPartial writes the free view: counts, categories and the preview.
func PrintPartial(w io.Writer, p disclosure.PartialScan, opts PrintOptions) {
	if !p.HasIssues {
		fmt.Fprintln(w, "No issues found ✅")
		printFooter(w, p.Summary, opts)
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("SEVERITY", "COUNT")
	for _, sev := range types.Severities {
		label := string(sev)
		if !opts.NoColor {
			label = colorSeverity(sev)
		}
		_ = table.Append([]string{label, fmt.Sprintf("%d", p.Summary.Count(sev))})
	}
	_ = table.Render()

	cats := make([]string, len(p.Categories))
	for i, c := range p.Categories {
		cats[i] = string(c)
	}
	fmt.Fprintf(w, "\nCategories: %s\n", strings.Join(cats, ", "))
	if pv := p.PreviewFinding; pv != nil {
		sev := strings.ToUpper(string(pv.Severity))
		if !opts.NoColor {
			sev = colorSeverity(pv.Severity)
		}
		fmt.Fprintf(w, "Top issue: [%s] %s (%s)\n", sev, pv.Title, pv.Category)
	}
	printFooter(w, p.Summary, opts)
	hint := "Run `vibeguard audit` for locations, explanations and fixes."
	if !opts.NoColor {
		hint = dimStyle.Render(hint)
	}
	fmt.Fprintln(w, hint)
}

// PrintDetails writes every field of every finding, highlighting code
// snippets when color is enabled.
func PrintDetails(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No issues found ✅")
	}
	for i, f := range findings {
		sev := strings.ToUpper(string(f.Severity))
		head := f.Title
		if !opts.NoColor {
			sev = colorSeverity(f.Severity)
			head = headingStyle.Render(head)
		}
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, sev, head)
		fmt.Fprintf(w, "   Category:   %s\n", f.Category)
		if f.File != "" {
			fmt.Fprintf(w, "   Location:   %s\n", location(f))
		}
		if f.CVE != "" {
			fmt.Fprintf(w, "   CVE:        %s\n", f.CVE)
		}
		fmt.Fprintf(w, "   Confidence: %.0f%%\n", f.Confidence*100)
		if f.Code != "" {
			code := f.Code
			if !opts.NoColor {
				code = highlightCode(code, f.File)
			}
			fmt.Fprintf(w, "   Code:       %s\n", strings.TrimRight(code, "\n"))
		}
		fmt.Fprintf(w, "   %s\n", f.Description)
		if f.Impact != "" {
			fmt.Fprintf(w, "   Impact:     %s\n", f.Impact)
		}
		if f.Recommendation != "" {
			fmt.Fprintf(w, "   Fix:        %s\n", f.Recommendation)
		}
		fmt.Fprintln(w)
	}
	printFooter(w, aggregate.Summarize(findings), opts)
}

func highlightCode(code string, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return code
	}

	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
