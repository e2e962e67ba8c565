package rules

import (
	"regexp"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// skipGlobs select build output, dependency trees and test files. Findings
// in these paths are noise for an application audit.
var skipGlobs = []string{
	"**/node_modules/**",
	"**/.next/**",
	"**/.nuxt/**",
	"**/.svelte-kit/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/coverage/**",
	"**/vendor/**",
	"**/.git/**",
	"**/.venv/**",
	"**/__pycache__/**",
	"**/__tests__/**",
	"**/__mocks__/**",
	"**/*.test.*",
	"**/*.spec.*",
	"**/*_test.go",
	"**/test_*.py",
	"**/*.min.js",
	"**/*.map",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
}

// apiRouteGlobs select server route handlers across the common frameworks
// (Next.js pages/app routers, Express/Nuxt/SvelteKit api folders).
var apiRouteGlobs = []string{
	"**/api/**",
	"**/server/routes/**",
}

// routeExemptions are path fragments for routes expected to be public.
var routeExemptions = []string{"auth", "webhook", "health"}

// AuthMarker matches evidence that a handler checks who is calling it.
var AuthMarker = regexp.MustCompile(`(?i)getServerSession|getSession\s*\(|\bauth\s*\(\s*\)|currentUser\s*\(|verifyToken|jwt\.verify|requireAuth|isAuthenticated|withAuth|clerk|supabase\.auth|getUser\s*\(|authorization|bearer|passport\.authenticate|ensureLoggedIn|session\.user|getToken\s*\(`)

func normalize(p string) string {
	return strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")
}

func matchAny(p string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
	}
	return false
}

// Skipped reports whether path lies in a build/dependency directory or is a
// test file.
func Skipped(path string) bool {
	return matchAny(normalize(path), skipGlobs)
}

// IsAPIRoute reports whether path is a server route handler.
func IsAPIRoute(path string) bool {
	return matchAny(normalize(path), apiRouteGlobs)
}

// IsPublicRoute reports whether an API route is expected to be reachable
// without authentication (auth flows, webhooks, health checks).
func IsPublicRoute(path string) bool {
	lower := strings.ToLower(normalize(path))
	for _, e := range routeExemptions {
		if strings.Contains(lower, e) {
			return true
		}
	}
	return false
}
