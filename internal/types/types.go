package types

// Severity is the urgency level of a finding. The five levels are totally
// ordered: critical is the most urgent, info the least.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevLow      Severity = "low"
	SevInfo     Severity = "info"
)

// Severities lists every severity in rank order, most urgent first.
var Severities = []Severity{SevCritical, SevHigh, SevMedium, SevLow, SevInfo}

// Rank returns the sort rank of s (critical=0 ... info=4). Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SevCritical:
		return 0
	case SevHigh:
		return 1
	case SevMedium:
		return 2
	case SevLow:
		return 3
	case SevInfo:
		return 4
	default:
		return 5
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool { return s.Rank() < 5 }

// Category is the security concern class a finding belongs to.
type Category string

const (
	CatAuthentication Category = "authentication"
	CatAuthorization  Category = "authorization"
	CatAPISecurity    Category = "api-security"
	CatRateLimiting   Category = "rate-limiting"
	CatCSRFXSS        Category = "csrf-xss"
	CatFileHandling   Category = "file-handling"
	CatDependencies   Category = "dependencies"
	CatSecrets        Category = "secrets"
	CatConfiguration  Category = "configuration"
	CatAISpecific     Category = "ai-specific"
)

// Categories lists all categories in declaration order.
var Categories = []Category{
	CatAuthentication, CatAuthorization, CatAPISecurity, CatRateLimiting, CatCSRFXSS,
	CatFileHandling, CatDependencies, CatSecrets, CatConfiguration, CatAISpecific,
}

// File is one project file handed to the engine.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Finding describes one detected issue. Findings are values: once built they
// are never merged or modified. Location fields (File, Line, Code) are set
// only when the issue has a concrete source location; CVE only for
// dependency advisories.
type Finding struct {
	ID             string   `json:"id"`
	Rule           string   `json:"rule,omitempty"`
	Category       Category `json:"category"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Impact         string   `json:"impact"`
	Recommendation string   `json:"recommendation"`
	File           string   `json:"file,omitempty"`
	Line           int      `json:"line,omitempty"`
	Code           string   `json:"code,omitempty"`
	CVE            string   `json:"cve,omitempty"`
	Confidence     float64  `json:"confidence"`
	IsStatic       bool     `json:"isStatic"`
}

// HasLocation reports whether the finding points at a file.
func (f Finding) HasLocation() bool { return f.File != "" }
