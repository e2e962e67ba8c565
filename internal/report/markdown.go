package report

import (
	"fmt"
	"strings"

	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/types"
)

// DateLayout formats the scan date in the markdown header.
const DateLayout = "January 2, 2006 15:04 UTC"

// Signature is the last line of every exported report.
const Signature = "*Generated by VibeGuard. Findings come from pattern and heuristic analysis; review each one before acting on it.*"

// ExportMarkdown renders a full audit as a markdown document. The output
// depends only on the audit, so identical audits render byte for byte the
// same.
func ExportMarkdown(a disclosure.FullAudit) string {
	var sb strings.Builder
	sb.WriteString("# Security Audit Report\n\n")
	if a.ProjectID != "" {
		fmt.Fprintf(&sb, "**Project:** %s  \n", a.ProjectID)
	}
	fmt.Fprintf(&sb, "**Audit ID:** %s  \n", a.ID)
	fmt.Fprintf(&sb, "**Date:** %s\n\n", a.ScannedAt.UTC().Format(DateLayout))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("| :--- | ---: |\n")
	for _, sev := range types.Severities {
		fmt.Fprintf(&sb, "| %s | %d |\n", title(string(sev)), a.Summary.Count(sev))
	}
	fmt.Fprintf(&sb, "| **Total** | **%d** |\n\n", a.Summary.Total)

	sb.WriteString("## Findings\n\n")
	if len(a.Findings) == 0 {
		sb.WriteString("No issues found.\n\n")
	}
	for _, f := range a.Findings {
		writeFinding(&sb, f)
	}
	sb.WriteString("---\n\n")
	sb.WriteString(Signature + "\n")
	return sb.String()
}

func writeFinding(sb *strings.Builder, f types.Finding) {
	fmt.Fprintf(sb, "### %s: %s\n\n", strings.ToUpper(string(f.Severity)), f.Title)
	fmt.Fprintf(sb, "**Category:** %s  \n", f.Category)
	if f.File != "" {
		loc := f.File
		if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.File, f.Line)
		}
		fmt.Fprintf(sb, "**File:** `%s`  \n", loc)
	}
	if f.CVE != "" {
		fmt.Fprintf(sb, "**CVE:** %s  \n", f.CVE)
	}
	fmt.Fprintf(sb, "**Confidence:** %.0f%%\n\n", f.Confidence*100)
	if f.Description != "" {
		sb.WriteString(f.Description + "\n\n")
	}
	if f.Code != "" {
		fence := codeFence(f.Code)
		fmt.Fprintf(sb, "%s\n%s\n%s\n\n", fence, f.Code, fence)
	}
	if f.Impact != "" {
		fmt.Fprintf(sb, "**Impact:** %s\n\n", f.Impact)
	}
	if f.Recommendation != "" {
		fmt.Fprintf(sb, "**Recommendation:** %s\n\n", f.Recommendation)
	}
}

// codeFence returns a backtick fence longer than any backtick run in code.
func codeFence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
