// Package heuristics evaluates corpus-wide existence predicates: properties
// of a project that cannot be decided one line at a time, such as whether
// any rate limiting exists at all. Each heuristic fires at most once.
package heuristics

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/varalys/vibeguard/internal/rules"
	"github.com/varalys/vibeguard/internal/types"
)

// Evidence points at the first place a heuristic found support. Heuristics
// that fire purely on an absence carry none.
type Evidence struct {
	Path string
	Line int
}

// Heuristic is one corpus-wide predicate and the finding it produces.
type Heuristic struct {
	ID             string
	Category       types.Category
	Severity       types.Severity
	Confidence     float64
	Title          string
	Description    string
	Impact         string
	Recommendation string
	Check          func(c *Corpus) (Evidence, bool)
}

// Corpus is the set of eligible project files a heuristic inspects.
type Corpus struct {
	files []types.File
}

// NewCorpus drops build output, dependency trees and tests from files.
func NewCorpus(files []types.File) *Corpus {
	c := &Corpus{}
	for _, f := range files {
		if rules.Skipped(f.Path) {
			continue
		}
		c.files = append(c.files, f)
	}
	return c
}

// Len returns the number of eligible files.
func (c *Corpus) Len() int { return len(c.files) }

// Any reports whether any file content matches re.
func (c *Corpus) Any(re *regexp.Regexp) bool {
	for _, f := range c.files {
		if re.MatchString(f.Content) {
			return true
		}
	}
	return false
}

// FirstAPIRoute returns the first file under an API route path.
func (c *Corpus) FirstAPIRoute() (Evidence, bool) {
	for _, f := range c.files {
		if rules.IsAPIRoute(f.Path) {
			return Evidence{Path: f.Path}, true
		}
	}
	return Evidence{}, false
}

// FirstLine returns the first line in the corpus matching re.
func (c *Corpus) FirstLine(re *regexp.Regexp) (Evidence, bool) {
	return c.firstLineWhere(re, func(types.File) bool { return true })
}

func (c *Corpus) firstLineWhere(re *regexp.Regexp, keep func(types.File) bool) (Evidence, bool) {
	for _, f := range c.files {
		if !keep(f) || !re.MatchString(f.Content) {
			continue
		}
		for i, l := range strings.Split(f.Content, "\n") {
			if re.MatchString(l) {
				return Evidence{Path: f.Path, Line: i + 1}, true
			}
		}
		// multi-line match; report the file only
		return Evidence{Path: f.Path}, true
	}
	return Evidence{}, false
}

var (
	reRateLimit    = regexp.MustCompile(`(?i)rate[-_ ]?limit|throttl|express-slow-down|\blimiter\b|@upstash/ratelimit`)
	reFormHandling = regexp.MustCompile(`(?i)<form\b|method\s*[:=]\s*["']post["']|export\s+(?:async\s+)?function\s+POST\b|\b(?:app|router)\.post\s*\(|onSubmit\s*=|formData\s*\(\s*\)|methods\s*=\s*\[\s*["']POST`)
	reCSRF         = regexp.MustCompile(`(?i)csrf|xsrf|csurf|sameSite\s*:\s*["']?(?:strict|lax)|next-auth|@auth/`)
	reUserInput    = regexp.MustCompile(`req\.(?:body|query|params)|request\.(?:json|formData)\s*\(|searchParams\.get\s*\(|request\.(?:form|args|get_json)|c\.(?:Bind|ShouldBind|Query|Param)\w*\s*\(`)
	reValidation   = regexp.MustCompile(`(?i)["']zod["']|\bz\.object\s*\(|\byup\b|\bjoi\b|class-validator|express-validator|valibot|\bajv\b|pydantic|superstruct|go-playground/validator|safeParse\s*\(`)
	reSecHeaders   = regexp.MustCompile(`(?i)helmet|content-security-policy|x-frame-options|strict-transport-security|x-content-type-options|securityHeaders`)
	reErrorLeak    = regexp.MustCompile(`(?:res\.(?:status\s*\([^)]*\)\s*\.)?(?:json|send)|(?:Next)?Response\.json|jsonify|c\.JSON)\s*\(.*\b(?:err|error|e)\.(?:stack|message)\b`)
	reAISDK        = regexp.MustCompile(`(?im)["'](?:openai|ai|@anthropic-ai/sdk|@google/generative-ai|cohere-ai|groq-sdk)["']|@ai-sdk/|langchain|^\s*import\s+(?:openai|anthropic)\b|from\s+(?:openai|anthropic)\s+import`)
	rePromptInput  = regexp.MustCompile(`(?i)\b(?:content|prompt|system|messages)\s*:\s*.*(?:req\.(?:body|query|params)|body\.|searchParams|\$\{\s*(?:input|message|query|prompt|userInput|question)\b|\buserInput\b)`)
	reToolCalling  = regexp.MustCompile(`(?i)\btools\s*[:=]|tool_choice|function_call|\btool\s*\(\s*\{|\bcreateTool\b|\bdefineTool\b|@tool\b`)
	reToolEffects  = regexp.MustCompile(`child_process|\bexecSync\s*\(|\bexec\s*\(|\bspawn\s*\(|writeFile(?:Sync)?\s*\(|\bsubprocess\.|os\.system\s*\(|shell\s*:\s*true`)
)

func absent(re *regexp.Regexp) func(*Corpus) bool {
	return func(c *Corpus) bool { return !c.Any(re) }
}

var library = []Heuristic{
	{
		ID:             "missing-rate-limiting",
		Category:       types.CatRateLimiting,
		Severity:       types.SevMedium,
		Confidence:     0.75,
		Title:          "No rate limiting on API routes",
		Description:    "The project exposes API routes but no rate-limiting library or middleware was found anywhere in the codebase.",
		Impact:         "Attackers can brute-force logins, scrape data or run up usage-based bills by calling the API in a tight loop.",
		Recommendation: "Add rate limiting in middleware or per route (for example express-rate-limit or @upstash/ratelimit), keyed by user or IP.",
		Check: func(c *Corpus) (Evidence, bool) {
			ev, ok := c.FirstAPIRoute()
			return ev, ok && absent(reRateLimit)(c)
		},
	},
	{
		ID:             "missing-csrf-protection",
		Category:       types.CatCSRFXSS,
		Severity:       types.SevMedium,
		Confidence:     0.7,
		Title:          "Form submissions without CSRF protection",
		Description:    "The project handles form or POST submissions but no CSRF token or SameSite cookie policy was found.",
		Impact:         "A malicious site can make a logged-in user's browser submit requests that change their data.",
		Recommendation: "Use CSRF tokens for state-changing requests or set session cookies with SameSite=Lax or Strict.",
		Check: func(c *Corpus) (Evidence, bool) {
			ev, ok := c.FirstLine(reFormHandling)
			return ev, ok && absent(reCSRF)(c)
		},
	},
	{
		ID:             "missing-input-validation",
		Category:       types.CatAPISecurity,
		Severity:       types.SevHigh,
		Confidence:     0.65,
		Title:          "User input used without a validation library",
		Description:    "Request bodies, query strings or route parameters are read, but no schema validation library was found.",
		Impact:         "Unexpected input shapes reach business logic and database queries, enabling injection and mass-assignment bugs.",
		Recommendation: "Validate every request against a schema (for example zod, yup or joi) before using it.",
		Check: func(c *Corpus) (Evidence, bool) {
			ev, ok := c.FirstLine(reUserInput)
			return ev, ok && absent(reValidation)(c)
		},
	},
	{
		ID:             "missing-security-headers",
		Category:       types.CatConfiguration,
		Severity:       types.SevMedium,
		Confidence:     0.8,
		Title:          "No security headers configured",
		Description:    "No Content-Security-Policy, X-Frame-Options, HSTS or helmet configuration was found.",
		Impact:         "Browsers apply no extra defenses against clickjacking, MIME sniffing or injected scripts.",
		Recommendation: "Set security headers in middleware or framework config (for example helmet, or headers() in next.config.js).",
		Check: func(c *Corpus) (Evidence, bool) {
			return Evidence{}, c.Len() > 0 && absent(reSecHeaders)(c)
		},
	},
	{
		ID:             "error-details-in-response",
		Category:       types.CatConfiguration,
		Severity:       types.SevLow,
		Confidence:     0.7,
		Title:          "Error details returned to clients",
		Description:    "Error messages or stack traces appear to be written into HTTP responses.",
		Impact:         "Internal paths, library versions and query fragments help attackers map the application.",
		Recommendation: "Log full errors on the server and return a generic message with a correlation id.",
		Check: func(c *Corpus) (Evidence, bool) {
			return c.FirstLine(reErrorLeak)
		},
	},
	{
		ID:             "ai-prompt-injection",
		Category:       types.CatAISpecific,
		Severity:       types.SevHigh,
		Confidence:     0.75,
		Title:          "Prompt injection risk",
		Description:    "An AI provider SDK is used and user input appears to flow directly into a prompt or message.",
		Impact:         "Users can override system instructions, extract hidden prompts or make the model act on their behalf.",
		Recommendation: "Keep user input in its own message, never in the system prompt, and constrain what the model's output can trigger.",
		Check: func(c *Corpus) (Evidence, bool) {
			if !c.Any(reAISDK) {
				return Evidence{}, false
			}
			return c.FirstLine(rePromptInput)
		},
	},
	{
		ID:             "ai-tool-execution",
		Category:       types.CatAISpecific,
		Severity:       types.SevMedium,
		Confidence:     0.7,
		Title:          "AI tools can execute commands or write files",
		Description:    "Tool calling is configured in a file that also spawns processes or writes to disk.",
		Impact:         "A manipulated model response can run commands or overwrite files on the server.",
		Recommendation: "Restrict tools to read-only operations, allow-list arguments and require confirmation for side effects.",
		Check: func(c *Corpus) (Evidence, bool) {
			return c.firstLineWhere(reToolCalling, func(f types.File) bool {
				return reToolEffects.MatchString(f.Content)
			})
		},
	},
}

// All returns the heuristics in evaluation order.
func All() []Heuristic {
	out := make([]Heuristic, len(library))
	copy(out, library)
	return out
}

// Scanner evaluates heuristics over a corpus.
type Scanner struct {
	heuristics []Heuristic
	newID      func() string
}

// New returns a Scanner for hs. A nil hs selects All and a nil newID selects
// random UUIDs.
func New(hs []Heuristic, newID func() string) *Scanner {
	if hs == nil {
		hs = All()
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Scanner{heuristics: hs, newID: newID}
}

// ScanHeuristics evaluates the built-in heuristics over files.
func ScanHeuristics(files []types.File) []types.Finding {
	return New(nil, nil).Scan(files)
}

// Scan evaluates each heuristic in order and returns one finding per
// heuristic that fires.
func (s *Scanner) Scan(files []types.File) []types.Finding {
	c := NewCorpus(files)
	var out []types.Finding
	for _, h := range s.heuristics {
		ev, ok := h.Check(c)
		if !ok {
			continue
		}
		out = append(out, types.Finding{
			ID:             s.newID(),
			Rule:           h.ID,
			Category:       h.Category,
			Severity:       h.Severity,
			Title:          h.Title,
			Description:    h.Description,
			Impact:         h.Impact,
			Recommendation: h.Recommendation,
			File:           ev.Path,
			Line:           ev.Line,
			Confidence:     h.Confidence,
			IsStatic:       false,
		})
	}
	return out
}
