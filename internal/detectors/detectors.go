package detectors

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

const (
	// DefaultMaxLineLength caps the bytes of a line handed to the rules.
	DefaultMaxLineLength = 4096
	// DefaultSnippetLength caps the runes of code echoed back in a finding.
	DefaultSnippetLength = 100
	// DefaultMaxFileBytes caps how much of a file is scanned.
	DefaultMaxFileBytes = 2 << 20
)

// FileCheck inspects a whole file and reports at most a few findings. It is
// used for properties that cannot be decided one line at a time.
type FileCheck func(s *Scanner, path, content string, lines []string) []types.Finding

// Options configure a Scanner. Zero values select the defaults.
type Options struct {
	Rules         []rules.Rule
	FileChecks    []FileCheck
	MaxLineLength int
	SnippetLength int
	MaxFileBytes  int
	NewID         func() string
}

// Scanner applies the rule library to every line of every eligible file.
// It keeps no state between calls and is safe for concurrent use.
type Scanner struct {
	opts Options
}

// New returns a Scanner with defaults filled in for unset options.
func New(opts Options) *Scanner {
	if opts.Rules == nil {
		opts.Rules = rules.All()
	}
	if opts.FileChecks == nil {
		opts.FileChecks = DefaultFileChecks()
	}
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = DefaultSnippetLength
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Scanner{opts: opts}
}

// ScanStatic scans files with the default rule library.
func ScanStatic(files []types.File) []types.Finding {
	return New(Options{}).Scan(files)
}

// Scan runs ScanFile over files in order. A file that fails to scan
// contributes no findings; the rest are still scanned.
func (s *Scanner) Scan(files []types.File) []types.Finding {
	var out []types.Finding
	for _, f := range files {
		fs, err := s.ScanFile(f)
		if err != nil {
			continue
		}
		out = append(out, fs...)
	}
	return out
}

// Eligible reports whether a file should be scanned at all.
func (s *Scanner) Eligible(f types.File) bool {
	if rules.Skipped(f.Path) {
		return false
	}
	return !strings.Contains(f.Content, "vibeguard:ignore-file")
}

// ScanFile scans one file. A panic raised while scanning is recovered and
// reported as an error so that one bad input cannot abort a whole audit.
func (s *Scanner) ScanFile(f types.File) (out []types.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("scan %s: %v", f.Path, r)
		}
	}()
	if !s.Eligible(f) {
		return nil, nil
	}
	content := f.Content
	if len(content) > s.opts.MaxFileBytes {
		content = content[:s.opts.MaxFileBytes]
	}
	lines := splitLines(content, s.opts.MaxLineLength)
	out = s.scanLines(f.Path, lines)
	for _, check := range s.opts.FileChecks {
		out = append(out, check(s, f.Path, content, lines)...)
	}
	return out, nil
}

func (s *Scanner) scanLines(path string, lines []string) []types.Finding {
	var out []types.Finding
	ignoreRegion := false
	skipNext := false
	for i, t := range lines {
		// Region markers
		if strings.Contains(t, "vibeguard:ignore-start") {
			ignoreRegion = true
			continue
		}
		if strings.Contains(t, "vibeguard:ignore-end") {
			ignoreRegion = false
			continue
		}
		if ignoreRegion {
			continue
		}
		if strings.Contains(t, "vibeguard:ignore-next-line") {
			skipNext = true
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}
		if strings.Contains(t, "vibeguard:ignore") {
			continue
		}
		for _, r := range s.opts.Rules {
			if _, ok := r.Match(t); ok {
				out = append(out, r.Finding(s.opts.NewID(), path, i+1, s.Snippet(t)))
			}
		}
	}
	return out
}

// Snippet trims a source line and bounds it to the configured rune count.
func (s *Scanner) Snippet(line string) string {
	return snippet(line, s.opts.SnippetLength)
}

func snippet(line string, max int) string {
	t := strings.TrimSpace(line)
	if utf8.RuneCountInString(t) <= max {
		return t
	}
	runes := []rune(t)
	return string(runes[:max]) + "..."
}

// splitLines splits content into lines, dropping carriage returns and
// truncating each line to max bytes on a rune boundary.
func splitLines(content string, max int) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		if len(l) > max {
			cut := max
			for cut > 0 && !utf8.RuneStart(l[cut]) {
				cut--
			}
			l = l[:cut]
		}
		lines[i] = l
	}
	return lines
}
