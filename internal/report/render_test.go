package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/types"
)

func TestPrintTable_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{File: "a.go", Line: 1, Rule: "hardcoded-api-key", Title: "Hardcoded API key", Category: types.CatSecrets, Severity: types.SevCritical, Confidence: 1}}
	PrintTable(&buf, fs, PrintOptions{NoColor: true})
	out := buf.String()
	// Should contain table elements
	if !strings.Contains(out, "SEVERITY") {
		t.Fatalf("expected table header with SEVERITY; got: %q", out)
	}
	if !strings.Contains(out, "Hardcoded API key") || !strings.Contains(out, "a.go:1") {
		t.Fatalf("expected title and location in table; got: %q", out)
	}
	if !strings.Contains(out, "│") {
		t.Fatalf("expected table borders; got: %q", out)
	}
	if !strings.Contains(out, "Findings: 1 (critical: 1,") {
		t.Fatalf("expected summary footer; got: %q", out)
	}
}

func TestPrintTable_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, nil, PrintOptions{NoColor: true, Duration: 1200 * time.Millisecond, FilesScanned: 10})
	out := buf.String()
	if !strings.Contains(out, "No issues found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
	if !strings.Contains(out, "Scan duration: 1.20s") {
		t.Fatalf("expected footer with duration; got: %q", out)
	}
}

func TestPrintPartial_ShowsPreviewOnly(t *testing.T) {
	fs := []types.Finding{{
		Category: types.CatSecrets, Severity: types.SevCritical, Title: "Hardcoded API key",
		File: "src/secret.ts", Line: 4, Code: "sk_live_zzz", Description: "hidden detail",
	}}
	var buf bytes.Buffer
	PrintPartial(&buf, disclosure.ToPartialScan(fs, time.Now()), PrintOptions{NoColor: true})
	out := buf.String()
	for _, want := range []string{"Top issue: [CRITICAL] Hardcoded API key (secrets)", "Categories: secrets", "vibeguard audit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output; got: %q", want, out)
		}
	}
	for _, leak := range []string{"src/secret.ts", "sk_live_zzz", "hidden detail"} {
		if strings.Contains(out, leak) {
			t.Fatalf("partial output leaked %q: %q", leak, out)
		}
	}
}

func TestPrintDetails(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{
		Category: types.CatDependencies, Severity: types.SevHigh, Title: "Vulnerable dependency: lodash",
		File: "package.json", CVE: "CVE-2021-23337", Description: "desc", Recommendation: "Upgrade lodash", Confidence: 0.9,
	}}
	PrintDetails(&buf, fs, PrintOptions{NoColor: true})
	out := buf.String()
	for _, want := range []string{"1. [HIGH] Vulnerable dependency: lodash", "Location:   package.json", "CVE:        CVE-2021-23337", "Confidence: 90%", "Fix:        Upgrade lodash"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output; got: %q", want, out)
		}
	}
}

func TestHighlightCode_UnknownFileIsUnchanged(t *testing.T) {
	if got := highlightCode("x = 1", "no-extension"); got != "x = 1" {
		t.Fatalf("expected unchanged code, got %q", got)
	}
}
