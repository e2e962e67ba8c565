// Package ignore matches paths against gitignore-style patterns from a
// .vibeguardignore file.
package ignore

import (
	"bufio"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file read from the scan root.
const FileName = ".vibeguardignore"

type pattern struct {
	glob    string
	negate  bool
	dirOnly bool
	rooted  bool
}

// Matcher reports whether a slash-separated relative path is ignored. The
// zero value ignores nothing.
type Matcher struct {
	patterns []pattern
}

// Parse builds a Matcher from ignore file content. Blank lines and lines
// starting with # are skipped; a leading ! re-includes a path.
func Parse(content string) Matcher {
	var m Matcher
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var p pattern
		if strings.HasPrefix(line, "!") {
			p.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			p.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") {
			p.rooted = true
			line = strings.TrimPrefix(line, "/")
		} else if strings.Contains(line, "/") {
			p.rooted = true
		}
		p.glob = line
		m.patterns = append(m.patterns, p)
	}
	return m
}

// Load reads patterns from path. A missing file yields an empty Matcher
// together with the read error.
func Load(p string) (Matcher, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return Matcher{}, err
	}
	return Parse(string(b)), nil
}

// Match reports whether rel is ignored. Later patterns override earlier
// ones, as in gitignore.
func (m Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	ignored := false
	for _, p := range m.patterns {
		if p.matches(rel) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (p pattern) matches(rel string) bool {
	// a directory pattern matches anything beneath it
	dirs := parents(rel)
	if p.dirOnly {
		for _, d := range dirs {
			if p.matchOne(d) {
				return true
			}
		}
		return false
	}
	if p.matchOne(rel) {
		return true
	}
	for _, d := range dirs {
		if p.matchOne(d) {
			return true
		}
	}
	return false
}

func (p pattern) matchOne(rel string) bool {
	if p.rooted {
		ok, _ := doublestar.Match(p.glob, rel)
		return ok
	}
	ok, _ := doublestar.Match(p.glob, path.Base(rel))
	return ok
}

// parents returns every proper directory prefix of rel.
func parents(rel string) []string {
	var out []string
	for d := path.Dir(rel); d != "." && d != "/" && d != ""; d = path.Dir(d) {
		out = append(out, d)
	}
	return out
}
