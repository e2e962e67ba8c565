// Package deps matches a package.json manifest against the advisory table.
//
// Matching is by package name only. A project that already pins a fixed
// release of an advised package is still reported; the declared version is
// echoed back so the reader can judge.
package deps

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/google/uuid"

	"github.com/varalys/vibeguard/internal/advisories"
	"github.com/varalys/vibeguard/internal/ctxparse"
	"github.com/varalys/vibeguard/internal/types"
)

// ManifestPath is the file name reported on dependency findings.
const ManifestPath = "package.json"

// Manifest is the subset of package.json the scanner reads.
type Manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Merged returns runtime and development dependencies in one map. A runtime
// declaration wins over a development one for the same name.
func (m Manifest) Merged() map[string]string {
	out := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	for k, v := range m.DevDependencies {
		out[k] = v
	}
	for k, v := range m.Dependencies {
		out[k] = v
	}
	return out
}

// ParseManifest decodes the dependency sections of b. Only invalid JSON is
// an error: a section that is not an object, or an entry whose version is
// not a string (a workspace or path reference), is skipped.
func ParseManifest(b []byte) (Manifest, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Dependencies:    versions(doc["dependencies"]),
		DevDependencies: versions(doc["devDependencies"]),
	}, nil
}

func versions(raw json.RawMessage) map[string]string {
	var entries map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return nil
	}
	out := make(map[string]string, len(entries))
	for name, v := range entries {
		var version *string
		if json.Unmarshal(v, &version) != nil || version == nil {
			continue
		}
		out[name] = *version
	}
	return out
}

// Scanner matches manifests against an advisory provider.
type Scanner struct {
	advisories advisories.Provider
	newID      func() string
}

// New returns a Scanner. A nil provider selects the built-in table and a nil
// newID selects random UUIDs.
func New(p advisories.Provider, newID func() string) *Scanner {
	if p == nil {
		p = advisories.Static()
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Scanner{advisories: p, newID: newID}
}

// ScanDependencies scans manifest with the built-in advisory table.
func ScanDependencies(manifest string) []types.Finding {
	return New(nil, nil).Scan(manifest)
}

// Scan never fails: a manifest that cannot be parsed yields a single
// low-severity configuration finding.
func (s *Scanner) Scan(manifest string) []types.Finding {
	m, err := ParseManifest([]byte(manifest))
	if err != nil {
		return []types.Finding{s.unparsable(err)}
	}
	declared := m.Merged()
	lines := ctxparse.Lines([]byte(manifest))
	lineOf := func(name string) int {
		if _, ok := m.Dependencies[name]; ok {
			return lines[ctxparse.Join("dependencies", name)]
		}
		return lines[ctxparse.Join("devDependencies", name)]
	}
	names := make([]string, 0, len(declared))
	for n := range declared {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []types.Finding
	for _, name := range names {
		version := declared[name]
		if a, ok := s.advisories.Lookup(name); ok {
			f := s.vulnerable(a, version)
			f.Line = lineOf(name)
			out = append(out, f)
		}
		if name == "react" && outdatedReact(version) {
			f := s.outdatedReact(version)
			f.Line = lineOf(name)
			out = append(out, f)
		}
	}
	return out
}

func (s *Scanner) unparsable(err error) types.Finding {
	return types.Finding{
		ID:             s.newID(),
		Rule:           "manifest-unparsable",
		Category:       types.CatConfiguration,
		Severity:       types.SevLow,
		Title:          "Dependency manifest could not be analyzed",
		Description:    fmt.Sprintf("package.json is not valid JSON (%v), so dependencies were not checked against known advisories.", err),
		Impact:         "Vulnerable dependencies may be present without being reported.",
		Recommendation: "Fix the syntax of package.json and run the audit again.",
		File:           ManifestPath,
		Confidence:     1.0,
		IsStatic:       true,
	}
}

func (s *Scanner) vulnerable(a advisories.Advisory, version string) types.Finding {
	return types.Finding{
		ID:             s.newID(),
		Rule:           "vulnerable-dependency",
		Category:       types.CatDependencies,
		Severity:       a.Severity,
		Title:          "Vulnerable dependency: " + a.Package,
		Description:    fmt.Sprintf("%s Declared version: %s.", a.Description, version),
		Impact:         "Known vulnerabilities in dependencies are routinely scanned for and exploited by automated tools.",
		Recommendation: fmt.Sprintf("Upgrade %s to %s or later.", a.Package, a.FixVersion),
		File:           ManifestPath,
		Code:           fmt.Sprintf("%q: %q", a.Package, version),
		CVE:            a.CVE,
		Confidence:     0.9,
		IsStatic:       true,
	}
}

func (s *Scanner) outdatedReact(version string) types.Finding {
	return types.Finding{
		ID:             s.newID(),
		Rule:           "outdated-react",
		Category:       types.CatDependencies,
		Severity:       types.SevLow,
		Title:          "Outdated React version",
		Description:    fmt.Sprintf("React %s is no longer receiving updates.", version),
		Impact:         "Security and stability fixes land only in current major versions.",
		Recommendation: "Upgrade React to the current major version.",
		File:           ManifestPath,
		Code:           fmt.Sprintf("%q: %q", "react", version),
		Confidence:     1.0,
		IsStatic:       true,
	}
}

var reWildcard = regexp.MustCompile(`\.(?:x|X|\*)`)

// majorOf extracts the major version of the lowest bound of a range such as
// "^17.0.2", "~16.14", ">=16.8 <18" or "17.x".
func majorOf(spec string) (uint64, bool) {
	v := strings.TrimSpace(spec)
	if i := strings.IndexAny(v, " |"); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimLeft(v, "^~>=<")
	v = reWildcard.ReplaceAllString(v, ".0")
	sv, err := semver.ParseTolerant(v)
	if err != nil {
		return 0, false
	}
	return sv.Major, true
}

func outdatedReact(spec string) bool {
	major, ok := majorOf(spec)
	return ok && (major == 16 || major == 17)
}
