// Package advisories provides known-vulnerable package data for the
// dependency scanner. Lookups are by package name only; declared versions
// are not compared against vulnerable ranges.
package advisories

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/varalys/vibeguard/internal/types"
)

// ErrInvalidAdvisory is returned when an overlay entry is incomplete.
var ErrInvalidAdvisory = errors.New("invalid advisory")

// Advisory describes a known-vulnerable package.
type Advisory struct {
	Package     string         `yaml:"package" json:"package"`
	Severity    types.Severity `yaml:"severity" json:"severity"`
	CVE         string         `yaml:"cve,omitempty" json:"cve,omitempty"`
	FixVersion  string         `yaml:"fix" json:"fix"`
	Description string         `yaml:"description" json:"description"`
}

// Provider looks up advisories by package name.
type Provider interface {
	Lookup(name string) (Advisory, bool)
	Names() []string
}

// Table is an in-memory Provider.
type Table map[string]Advisory

// Lookup implements Provider.
func (t Table) Lookup(name string) (Advisory, bool) {
	a, ok := t[name]
	return a, ok
}

// Names returns the package names in the table, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var static = Table{
	"lodash":       {Package: "lodash", Severity: types.SevHigh, CVE: "CVE-2021-23337", FixVersion: "4.17.21", Description: "Command injection through the template function."},
	"minimist":     {Package: "minimist", Severity: types.SevCritical, CVE: "CVE-2021-44906", FixVersion: "1.2.6", Description: "Prototype pollution when parsing crafted arguments."},
	"axios":        {Package: "axios", Severity: types.SevMedium, CVE: "CVE-2023-45857", FixVersion: "1.6.0", Description: "XSRF-TOKEN cookie leaked to third-party hosts."},
	"jsonwebtoken": {Package: "jsonwebtoken", Severity: types.SevHigh, CVE: "CVE-2022-23529", FixVersion: "9.0.0", Description: "Insecure key handling in verify allows signature bypass in some configurations."},
	"node-fetch":   {Package: "node-fetch", Severity: types.SevHigh, CVE: "CVE-2022-0235", FixVersion: "2.6.7", Description: "Cookies and authorization headers forwarded to redirected third-party hosts."},
	"express":      {Package: "express", Severity: types.SevMedium, CVE: "CVE-2024-29041", FixVersion: "4.19.2", Description: "Open redirect through malformed URLs in res.location and res.redirect."},
	"next":         {Package: "next", Severity: types.SevCritical, CVE: "CVE-2025-29927", FixVersion: "15.2.3", Description: "Authorization bypass in middleware through the x-middleware-subrequest header."},
	"moment":       {Package: "moment", Severity: types.SevHigh, CVE: "CVE-2022-31129", FixVersion: "2.29.4", Description: "Inefficient parsing of RFC 2822 dates enables denial of service."},
	"ws":           {Package: "ws", Severity: types.SevHigh, CVE: "CVE-2024-37890", FixVersion: "8.17.1", Description: "Denial of service through requests with many HTTP headers."},
	"xml2js":       {Package: "xml2js", Severity: types.SevMedium, CVE: "CVE-2023-0842", FixVersion: "0.5.0", Description: "Prototype pollution through crafted XML."},
	"semver":       {Package: "semver", Severity: types.SevHigh, CVE: "CVE-2022-25883", FixVersion: "7.5.2", Description: "Regular expression denial of service in range parsing."},
	"tough-cookie": {Package: "tough-cookie", Severity: types.SevMedium, CVE: "CVE-2023-26136", FixVersion: "4.1.3", Description: "Prototype pollution in the cookie jar with loose mode."},
	"ejs":          {Package: "ejs", Severity: types.SevCritical, CVE: "CVE-2022-29078", FixVersion: "3.1.7", Description: "Server-side template injection through the settings option."},
	"body-parser":  {Package: "body-parser", Severity: types.SevHigh, CVE: "CVE-2024-45590", FixVersion: "1.20.3", Description: "Denial of service when URL encoding is enabled."},
}

// Static returns a copy of the built-in advisory table, so callers may
// extend or trim it without affecting other scans.
func Static() Table { return maps.Clone(static) }

type overlay struct {
	Advisories []Advisory `yaml:"advisories"`
}

// Parse decodes a YAML advisory overlay.
func Parse(b []byte) (Table, error) {
	var doc overlay
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse advisories: %w", err)
	}
	t := Table{}
	for i, a := range doc.Advisories {
		if a.Package == "" || !a.Severity.Valid() {
			return nil, fmt.Errorf("%w: entry %d (package=%q severity=%q)", ErrInvalidAdvisory, i, a.Package, a.Severity)
		}
		t[a.Package] = a
	}
	return t, nil
}

// LoadFile reads a YAML advisory overlay from path.
func LoadFile(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Chain consults providers in order; the first hit wins.
type Chain []Provider

// Lookup implements Provider.
func (c Chain) Lookup(name string) (Advisory, bool) {
	for _, p := range c {
		if a, ok := p.Lookup(name); ok {
			return a, true
		}
	}
	return Advisory{}, false
}

// Names implements Provider.
func (c Chain) Names() []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range c {
		for _, n := range p.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	sort.Strings(names)
	return names
}
