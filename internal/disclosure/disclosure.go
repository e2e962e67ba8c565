// Package disclosure derives the two result views of an audit.
//
// PartialScan is the free view. It is built from its own small types and
// holds no Finding, so descriptions, impacts, recommendations, locations,
// snippets and CVEs cannot reach it through any code path. FullAudit is
// the paid view and carries every finding unchanged. Neither derivation
// checks entitlement; that is the caller's decision.
package disclosure

import (
	"errors"
	"time"

	"github.com/varalys/vibeguard/internal/aggregate"
	"github.com/varalys/vibeguard/internal/types"
)

// ErrEmptyAuditID is returned when a full audit is requested without an id.
var ErrEmptyAuditID = errors.New("audit id is required")

// Preview is the detail-stripped form of the most severe finding.
type Preview struct {
	Category types.Category `json:"category"`
	Severity types.Severity `json:"severity"`
	Title    string         `json:"title"`
}

// PartialScan is the free-tier result.
type PartialScan struct {
	HasIssues      bool              `json:"hasIssues"`
	Summary        aggregate.Summary `json:"summary"`
	Categories     []types.Category  `json:"categories"`
	PreviewFinding *Preview          `json:"previewFinding,omitempty"`
	ScannedAt      time.Time         `json:"scannedAt"`
}

// Status is the lifecycle state of a full audit.
type Status string

const (
	StatusCompleted Status = "completed"
)

// FullAudit is the paid-tier result.
type FullAudit struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"projectId"`
	Status      Status            `json:"status"`
	Summary     aggregate.Summary `json:"summary"`
	Findings    []types.Finding   `json:"findings"`
	ScannedAt   time.Time         `json:"scannedAt"`
	CompletedAt time.Time         `json:"completedAt"`
}

// ToPartialScan builds the free view of findings, which are expected in
// aggregated order.
func ToPartialScan(findings []types.Finding, scannedAt time.Time) PartialScan {
	p := PartialScan{
		HasIssues:  len(findings) > 0,
		Summary:    aggregate.Summarize(findings),
		Categories: aggregate.Categories(findings),
		ScannedAt:  scannedAt.UTC(),
	}
	if top, ok := mostSevere(findings); ok {
		p.PreviewFinding = &Preview{Category: top.Category, Severity: top.Severity, Title: top.Title}
	}
	return p
}

// mostSevere returns the first finding of the lowest rank. For aggregated
// input that is the first element.
func mostSevere(findings []types.Finding) (types.Finding, bool) {
	if len(findings) == 0 {
		return types.Finding{}, false
	}
	top := findings[0]
	for _, f := range findings[1:] {
		if f.Severity.Rank() < top.Severity.Rank() {
			top = f
		}
	}
	return top, true
}

// ToFullAudit builds the paid view of findings.
func ToFullAudit(findings []types.Finding, id, projectID string, scannedAt, completedAt time.Time) (FullAudit, error) {
	if id == "" {
		return FullAudit{}, ErrEmptyAuditID
	}
	fs := make([]types.Finding, len(findings))
	copy(fs, findings)
	return FullAudit{
		ID:          id,
		ProjectID:   projectID,
		Status:      StatusCompleted,
		Summary:     aggregate.Summarize(fs),
		Findings:    fs,
		ScannedAt:   scannedAt.UTC(),
		CompletedAt: completedAt.UTC(),
	}, nil
}
