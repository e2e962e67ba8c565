// Package rules holds the static rule library: immutable, independently
// constructed detector values that the static scanner evaluates line by line.
package rules

import (
	"regexp"
	"strings"

	"github.com/varalys/vibeguard/internal/types"
	v "github.com/varalys/vibeguard/internal/validate"
)

// Rule is a single line-level detector. All fields are set at construction
// and never modified; compiled regexps in Go carry no match position, so a
// Rule may be shared across goroutines.
type Rule struct {
	ID         string
	Category   types.Category
	Severity   types.Severity
	Confidence float64
	IsStatic   bool

	Title          string
	Description    string
	Impact         string
	Recommendation string

	// Pattern must match the line for the rule to fire. The first submatch,
	// when present, is the value handed to Validate; otherwise the whole match.
	Pattern *regexp.Regexp
	// Requires, when set, must also match somewhere on the line.
	Requires *regexp.Regexp
	// Excludes, when set, suppresses the rule for lines it matches.
	Excludes *regexp.Regexp
	// Validate, when set, filters candidate values (false = not a finding).
	Validate func(value string) bool
}

// Match evaluates the rule against a single line and returns the matched
// value. It holds no state between calls.
func (r Rule) Match(line string) (string, bool) {
	if r.Requires != nil && !r.Requires.MatchString(line) {
		return "", false
	}
	if r.Excludes != nil && r.Excludes.MatchString(line) {
		return "", false
	}
	for _, m := range r.Pattern.FindAllStringSubmatch(line, -1) {
		value := m[0]
		for _, g := range m[1:] {
			if g != "" {
				value = g
				break
			}
		}
		if r.Validate == nil || r.Validate(value) {
			return value, true
		}
	}
	return "", false
}

// Finding builds the finding this rule reports at path:line with the given
// code snippet.
func (r Rule) Finding(id, path string, line int, code string) types.Finding {
	return types.Finding{
		ID:             id,
		Rule:           r.ID,
		Category:       r.Category,
		Severity:       r.Severity,
		Title:          r.Title,
		Description:    r.Description,
		Impact:         r.Impact,
		Recommendation: r.Recommendation,
		File:           path,
		Line:           line,
		Code:           code,
		Confidence:     r.Confidence,
		IsStatic:       r.IsStatic,
	}
}

// userInput matches common spellings of request-derived data.
const userInput = `(req|request|ctx\.request)\.(body|query|params)|searchParams|formData\(|params\.[a-zA-Z_]+|userInput|\$\{`

var library = []Rule{
	{
		ID: "hardcoded-api-key", Category: types.CatSecrets, Severity: types.SevCritical, Confidence: 1.0, IsStatic: true,
		Title:          "Hardcoded API key",
		Description:    "An API key or secret token is written directly in source code.",
		Impact:         "Anyone with access to the repository or the shipped bundle can use the key to act as your application, run up charges or read private data.",
		Recommendation: "Move the key to an environment variable or secret manager, rotate the exposed key, and purge it from version control history.",
		Pattern:        regexp.MustCompile(`(?i)\b(?:api[_-]?key|apikey|secret[_-]?key|access[_-]?token|auth[_-]?token|client[_-]?secret)\b["']?\s*[:=]\s*["'` + "`" + `]([A-Za-z0-9_\-]{16,})["'` + "`" + `]|\b(sk_live_[A-Za-z0-9]{24,}|sk-ant-[A-Za-z0-9_\-]{32,}|sk-[A-Za-z0-9]{32,}|ghp_[A-Za-z0-9]{36}|xox[baprs]-[A-Za-z0-9-]{10,})`),
		Validate:       func(s string) bool { return !v.IsPlaceholder(s) },
	},
	{
		ID: "aws-access-key", Category: types.CatSecrets, Severity: types.SevCritical, Confidence: 1.0, IsStatic: true,
		Title:          "AWS access key ID in source",
		Description:    "A string shaped like an AWS access key ID is present in source code.",
		Impact:         "Leaked AWS credentials let attackers create resources, read storage buckets and exfiltrate data billed to your account.",
		Recommendation: "Deactivate the key in IAM, issue a new one through environment configuration or a role, and scrub it from history.",
		Pattern:        regexp.MustCompile(`\b((?:AKIA|ASIA)[0-9A-Z]{16})\b`),
		Validate:       v.LooksLikeAWSAccessKey,
	},
	{
		ID: "private-key", Category: types.CatSecrets, Severity: types.SevCritical, Confidence: 1.0, IsStatic: true,
		Title:          "Private key committed",
		Description:    "A PEM private key header was found in a project file.",
		Impact:         "A committed private key allows impersonation of the server or signer it belongs to and decryption of traffic protected by it.",
		Recommendation: "Remove the key file, revoke and regenerate the key pair, and load keys from a secret store at runtime.",
		Pattern:        regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |ENCRYPTED )?PRIVATE KEY-----`),
	},
	{
		ID: "hardcoded-password", Category: types.CatSecrets, Severity: types.SevHigh, Confidence: 0.8, IsStatic: true,
		Title:          "Hardcoded password",
		Description:    "A password literal is assigned in source code.",
		Impact:         "Hardcoded passwords are shared with everyone who can read the code and cannot be rotated without a redeploy.",
		Recommendation: "Read the password from the environment or a secret manager and rotate the current value.",
		Pattern:        regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\b["']?\s*[:=]\s*["']([^"'\s]{6,})["']`),
		Validate:       func(s string) bool { return v.LooksLikePassword(s) && !strings.HasPrefix(s, "process.env") },
	},
	{
		ID: "database-url-credentials", Category: types.CatSecrets, Severity: types.SevHigh, Confidence: 0.9, IsStatic: true,
		Title:          "Database connection string with credentials",
		Description:    "A database URL with an embedded username and password is present in source code.",
		Impact:         "Anyone reading the code can connect to the database directly, bypassing every application-level control.",
		Recommendation: "Load the connection string from an environment variable and rotate the database password.",
		Pattern:        regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:\s/"'@]+:([^@\s"']+)@`),
		Validate:       func(s string) bool { return !v.IsPlaceholder(s) && !strings.HasPrefix(s, "${") },
	},
	{
		ID: "client-exposed-ai-key", Category: types.CatAISpecific, Severity: types.SevHigh, Confidence: 0.9, IsStatic: true,
		Title:          "AI provider key exposed to the browser",
		Description:    "An AI provider key is read from a public (client-bundled) environment variable.",
		Impact:         "Public environment variables are inlined into the JavaScript bundle, so any visitor can extract the key and spend your AI quota.",
		Recommendation: "Keep AI provider keys in server-only variables and call the provider from a server route.",
		Pattern:        regexp.MustCompile(`\b(?:NEXT_PUBLIC|VITE|REACT_APP|EXPO_PUBLIC)_[A-Z_]*(?:OPENAI|ANTHROPIC|GEMINI|GOOGLE_AI|MISTRAL|GROQ|COHERE|REPLICATE)[A-Z_]*KEY\b`),
	},
	{
		ID: "dangerous-html", Category: types.CatCSRFXSS, Severity: types.SevHigh, Confidence: 0.9, IsStatic: true,
		Title:          "Unsanitized HTML injection",
		Description:    "Raw HTML is injected into the page without sanitization.",
		Impact:         "If any part of the HTML comes from users, attackers can run scripts in other users' browsers and steal sessions.",
		Recommendation: "Render text instead of HTML, or sanitize with a maintained library such as DOMPurify before injecting.",
		Pattern:        regexp.MustCompile(`dangerouslySetInnerHTML|\.innerHTML\s*=[^=]|\.outerHTML\s*=[^=]|\bv-html=|\{@html\s`),
		Excludes:       regexp.MustCompile(`(?i)dompurify|sanitize`),
	},
	{
		ID: "dynamic-eval", Category: types.CatCSRFXSS, Severity: types.SevCritical, Confidence: 1.0, IsStatic: true,
		Title:          "Dynamic code evaluation",
		Description:    "Code is evaluated from a string at runtime with eval or the Function constructor.",
		Impact:         "Any attacker-influenced string reaching this call executes as code with full application privileges.",
		Recommendation: "Replace dynamic evaluation with explicit parsing (for example JSON.parse) or a lookup table of allowed operations.",
		Pattern:        regexp.MustCompile(`(?:^|[^\w.])eval\s*\(|\bnew\s+Function\s*\(`),
	},
	{
		ID: "document-write", Category: types.CatCSRFXSS, Severity: types.SevMedium, Confidence: 0.8, IsStatic: true,
		Title:          "document.write usage",
		Description:    "document.write writes raw markup into the page.",
		Impact:         "Markup built from URL or user data becomes a script injection vector.",
		Recommendation: "Build DOM nodes with textContent or a framework renderer instead of document.write.",
		Pattern:        regexp.MustCompile(`\bdocument\.write(?:ln)?\s*\(`),
	},
	{
		ID: "sql-interpolation", Category: types.CatAPISecurity, Severity: types.SevCritical, Confidence: 0.85, IsStatic: true,
		Title:          "SQL built with string interpolation",
		Description:    "A SQL statement is assembled by interpolating or concatenating values into the query text.",
		Impact:         "Attackers can alter the query to read, modify or delete any data the database user can reach.",
		Recommendation: "Use parameterized queries or the query builder's placeholders instead of building SQL strings.",
		Pattern:        regexp.MustCompile("(?i)`\\s*(?:SELECT|INSERT|UPDATE|DELETE)\\b[^`]*\\$\\{|[\"']\\s*(?:SELECT|INSERT|UPDATE|DELETE)\\b[^\"']*[\"']\\s*\\+|f[\"']\\s*(?:SELECT|INSERT|UPDATE|DELETE)\\b[^\"']*\\{"),
	},
	{
		ID: "command-injection", Category: types.CatAPISecurity, Severity: types.SevCritical, Confidence: 0.8, IsStatic: true,
		Title:          "User input passed to a shell command",
		Description:    "A process-spawning call receives data derived from the request.",
		Impact:         "Attackers can run arbitrary commands on the server, leading to full compromise.",
		Recommendation: "Avoid the shell: pass arguments as an array to execFile/spawn, and validate input against an allow-list.",
		Pattern:        regexp.MustCompile(`\b(?:exec|execSync|spawn|spawnSync|execFile|execFileSync)\s*\(|\bos\.system\s*\(|\bsubprocess\.(?:run|call|Popen)\s*\(`),
		Requires:       regexp.MustCompile(userInput),
	},
	{
		ID: "path-traversal", Category: types.CatFileHandling, Severity: types.SevHigh, Confidence: 0.75, IsStatic: true,
		Title:          "File path built from user input",
		Description:    "A filesystem call uses a path derived from the request.",
		Impact:         "Attackers can read or overwrite files outside the intended directory using ../ sequences.",
		Recommendation: "Resolve the path, verify it stays inside an allowed base directory, and reject anything else.",
		Pattern:        regexp.MustCompile(`\b(?:readFile|readFileSync|createReadStream|writeFile|writeFileSync|createWriteStream|unlink|unlinkSync|sendFile)\s*\(`),
		Requires:       regexp.MustCompile(userInput),
	},
	{
		ID: "open-redirect", Category: types.CatAPISecurity, Severity: types.SevMedium, Confidence: 0.8, IsStatic: true,
		Title:          "Redirect target taken from user input",
		Description:    "A redirect uses a URL supplied in the request.",
		Impact:         "Attackers can send users through your domain to phishing pages.",
		Recommendation: "Redirect only to relative paths or to an allow-list of known destinations.",
		Pattern:        regexp.MustCompile(`\bredirect\s*\(\s*(?:req|request)\.(?:query|body|params)|\bredirect\s*\(\s*searchParams\.get\(`),
	},
	{
		ID: "permissive-cors", Category: types.CatConfiguration, Severity: types.SevMedium, Confidence: 0.95, IsStatic: true,
		Title:          "Permissive CORS configuration",
		Description:    "Cross-origin requests are allowed from any origin.",
		Impact:         "Any website can call the API from a visitor's browser, which exposes authenticated endpoints to cross-site abuse.",
		Recommendation: "Restrict allowed origins to the domains that actually need access.",
		Pattern:        regexp.MustCompile(`(?i)access-control-allow-origin["']?\s*[:,]\s*["']\*["']|\borigin\s*:\s*(?:["']\*["']|true\b)|\bcors\(\s*\)`),
	},
	{
		ID: "weak-hash", Category: types.CatAuthentication, Severity: types.SevHigh, Confidence: 1.0, IsStatic: true,
		Title:          "Weak hashing algorithm",
		Description:    "MD5 or SHA-1 is used for hashing.",
		Impact:         "MD5 and SHA-1 are fast and collision-prone; hashed passwords or tokens can be brute-forced quickly.",
		Recommendation: "Use bcrypt, scrypt or Argon2 for passwords and SHA-256 or better for integrity checks.",
		Pattern:        regexp.MustCompile(`(?i)createHash\(\s*["'](?:md5|sha1)["']|\bhashlib\.(?:md5|sha1)\s*\(|(?:^|[^\w.])(?:md5|sha1)\s*\(`),
	},
	{
		ID: "jwt-decode-without-verify", Category: types.CatAuthentication, Severity: types.SevHigh, Confidence: 0.7, IsStatic: true,
		Title:          "JWT decoded without verification",
		Description:    "A JSON Web Token is decoded without checking its signature, or the 'none' algorithm is accepted.",
		Impact:         "Attackers can forge tokens with arbitrary claims and impersonate any user.",
		Recommendation: "Use jwt.verify with an explicit algorithm list and a server-side secret or public key.",
		Pattern:        regexp.MustCompile(`\bjwt\.decode\s*\(|algorithms\s*:\s*\[\s*["']none["']`),
	},
	{
		ID: "plaintext-url", Category: types.CatConfiguration, Severity: types.SevMedium, Confidence: 0.9, IsStatic: true,
		Title:          "Plaintext HTTP URL",
		Description:    "A non-TLS http:// URL to a remote host is referenced in source code.",
		Impact:         "Traffic to this endpoint can be read or modified by anyone on the network path, including credentials and tokens.",
		Recommendation: "Switch the URL to https:// and make sure the remote endpoint supports TLS.",
		Pattern:        regexp.MustCompile(`\bhttp://[^\s"'` + "`" + `<>)]+`),
		Validate:       v.IsRemotePlaintextURL,
	},
	{
		ID: "insecure-cookie", Category: types.CatConfiguration, Severity: types.SevMedium, Confidence: 0.95, IsStatic: true,
		Title:          "Cookie security flags disabled",
		Description:    "A cookie is configured with secure or httpOnly explicitly turned off.",
		Impact:         "Cookies without these flags can be sent over plaintext connections or read by injected scripts, enabling session theft.",
		Recommendation: "Set secure: true, httpOnly: true and an explicit sameSite policy on session cookies.",
		Pattern:        regexp.MustCompile(`(?i)\b(?:secure|httpOnly)\s*:\s*false\b`),
	},
	{
		ID: "tls-verification-disabled", Category: types.CatConfiguration, Severity: types.SevHigh, Confidence: 0.95, IsStatic: true,
		Title:          "TLS certificate verification disabled",
		Description:    "Certificate verification is turned off for outgoing TLS connections.",
		Impact:         "Man-in-the-middle attackers can intercept and alter traffic the application believes is encrypted.",
		Recommendation: "Remove the override and trust the proper CA bundle instead.",
		Pattern:        regexp.MustCompile(`\brejectUnauthorized\s*:\s*false\b|NODE_TLS_REJECT_UNAUTHORIZED\s*=\s*["']?0|\bverify\s*=\s*False\b|InsecureSkipVerify\s*:\s*true`),
	},
}

// All returns the rule library in evaluation order. The slice is a copy;
// callers may filter it freely.
func All() []Rule {
	out := make([]Rule, len(library))
	copy(out, library)
	return out
}

// IDs returns the rule IDs in evaluation order.
func IDs() []string {
	ids := make([]string, 0, len(library))
	for _, r := range library {
		ids = append(ids, r.ID)
	}
	return ids
}

// Filter applies enable/disable lists (comma-separated rule IDs). An empty
// enable list keeps every rule. The result is never nil, so an enable list
// matching nothing yields an empty rule set rather than the defaults.
func Filter(rs []Rule, enable, disable string) []Rule {
	if enable == "" && disable == "" {
		return rs
	}
	allowed := splitSet(enable)
	blocked := splitSet(disable)
	out := []Rule{}
	for _, r := range rs {
		if len(allowed) > 0 && !allowed[r.ID] {
			continue
		}
		if blocked[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func splitSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = true
		}
	}
	return set
}
