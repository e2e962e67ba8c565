package validate

import (
	"math"
	"net/url"
	"strings"
)

// LengthBetween returns true if n is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// IsAlphabet returns true if all characters in s are in allowed set.
func IsAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// LooksLikeAWSAccessKey checks for AKIA/ASIA + 16 uppercase alnum.
func LooksLikeAWSAccessKey(s string) bool {
	if !(strings.HasPrefix(s, "AKIA") || strings.HasPrefix(s, "ASIA")) {
		return false
	}
	if len(s) != 20 {
		return false
	}
	const upperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	return IsAlphabet(s[4:], upperAlnum)
}

// Entropy returns the Shannon entropy of s in bits per character.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	count := map[rune]int{}
	for _, r := range s {
		count[r]++
	}
	H := 0.0
	n := float64(len(s))
	for _, c := range count {
		p := float64(c) / n
		H += -p * math.Log2(p)
	}
	return H
}

// LooksLikePassword filters password literals: bounded length, not a
// template value, and at least two bits of entropy per character so that
// "aaaaaa" or "abab12" style fillers are dropped.
func LooksLikePassword(s string) bool {
	return LengthBetween(s, 6, 128) && !IsPlaceholder(s) && Entropy(s) >= 2
}

var placeholderWords = []string{
	"your", "example", "placeholder", "changeme", "change_me", "replace", "dummy", "redacted", "insert", "<", "xxxx", "****", "todo",
}

// IsPlaceholder reports whether a candidate secret is an obvious template
// value such as "your-api-key-here" or "xxxxxxxx".
func IsPlaceholder(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range placeholderWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// localHosts are hosts for which plaintext URLs are expected.
var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

// schemaHosts publish XML namespaces and schema identifiers that are never fetched.
var schemaHosts = map[string]bool{
	"www.w3.org":          true,
	"w3.org":              true,
	"schemas.xmlsoap.org": true,
	"json-schema.org":     true,
	"example.com":         true,
	"www.example.com":     true,
	"example.org":         true,
}

// IsRemotePlaintextURL reports whether raw is an http:// URL that points at
// a real remote host (not loopback, not an XML/JSON schema identifier).
func IsRemotePlaintextURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || localHosts[host] || schemaHosts[host] {
		return false
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") {
		return false
	}
	return true
}
