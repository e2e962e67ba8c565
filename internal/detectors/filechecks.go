package detectors

import (
	"regexp"

	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

// DefaultFileChecks returns the whole-file checks run after line scanning.
func DefaultFileChecks() []FileCheck {
	return []FileCheck{EnvInResponse, UnprotectedRoute}
}

var reEnvInResponse = regexp.MustCompile(`(?:res\.(?:json|send)|(?:Next)?Response\.json|JSON\.stringify|c\.JSON|jsonify)\s*\(.*(?:process\.env|os\.environ|os\.Getenv|import\.meta\.env)|\.\.\.process\.env\b|\benv\s*:\s*process\.env\b`)

// EnvInResponse reports environment variables echoed into an API response.
// It fires once per file, at the first offending line.
func EnvInResponse(s *Scanner, path, _ string, lines []string) []types.Finding {
	for i, l := range lines {
		if !reEnvInResponse.MatchString(l) {
			continue
		}
		return []types.Finding{{
			ID:             s.opts.NewID(),
			Rule:           "env-in-response",
			Category:       types.CatSecrets,
			Severity:       types.SevHigh,
			Title:          "Environment variables returned in a response",
			Description:    "Values from the process environment appear to be serialized into an HTTP response.",
			Impact:         "Environment variables usually hold API keys and database credentials; returning them hands those secrets to any caller.",
			Recommendation: "Return only the specific non-secret values the client needs and never serialize process.env.",
			File:           path,
			Line:           i + 1,
			Code:           s.Snippet(l),
			Confidence:     0.8,
			IsStatic:       true,
		}}
	}
	return nil
}

// UnprotectedRoute reports API route files that never reference any
// authentication mechanism. It is a heuristic, not a proof.
func UnprotectedRoute(s *Scanner, path, content string, _ []string) []types.Finding {
	if !rules.IsAPIRoute(path) || rules.IsPublicRoute(path) {
		return nil
	}
	if rules.AuthMarker.MatchString(content) {
		return nil
	}
	return []types.Finding{{
		ID:             s.opts.NewID(),
		Rule:           "unprotected-api-route",
		Category:       types.CatAuthorization,
		Severity:       types.SevMedium,
		Title:          "API route without authentication check",
		Description:    "This API route does not reference any session, token or authentication helper.",
		Impact:         "If the route returns or modifies user data, anyone on the internet can call it directly.",
		Recommendation: "Verify the caller's session or token at the top of the handler, or protect the route in middleware.",
		File:           path,
		Confidence:     0.7,
		IsStatic:       false,
	}}
}
