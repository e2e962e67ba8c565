package report

import (
	"encoding/json"
	"io"

	"github.com/varalys/vibeguard/internal/disclosure"
	"github.com/varalys/vibeguard/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	Help             sarifMessage   `json:"help"`
	Properties       map[string]any `json:"properties,omitempty"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt     `json:"artifactLocation"`
	Region           *sarifRegion `json:"region,omitempty"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int           `json:"startLine"`
	Snippet   *sarifMessage `json:"snippet,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevCritical, types.SevHigh:
		return "error"
	case types.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(f types.Finding) string {
	if f.Rule != "" {
		return f.Rule
	}
	return string(f.Category)
}

// WriteSARIF writes a full audit as SARIF 2.1.0.
func WriteSARIF(w io.Writer, a disclosure.FullAudit, toolVersion string) error {
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "vibeguard", Version: toolVersion, Rules: []sarifRule{}}},
		Results: []sarifResult{},
		Properties: map[string]any{
			"auditId":   a.ID,
			"projectId": a.ProjectID,
			"summary":   a.Summary,
		},
	}
	index := map[string]int{}
	for _, f := range a.Findings {
		id := ruleID(f)
		idx, ok := index[id]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[id] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               id,
				ShortDescription: sarifMessage{Text: f.Title},
				Help:             sarifMessage{Text: f.Recommendation},
				Properties: map[string]any{
					"category": f.Category,
					"severity": f.Severity,
				},
			})
		}
		res := sarifResult{
			RuleID:    id,
			RuleIndex: idx,
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: f.Title + ": " + f.Description},
		}
		if f.File != "" {
			loc := sarifLoc{PhysicalLocation: sarifPhys{ArtifactLocation: sarifArt{URI: f.File}}}
			if f.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: f.Line}
				if f.Code != "" {
					loc.PhysicalLocation.Region.Snippet = &sarifMessage{Text: f.Code}
				}
			}
			res.Locations = []sarifLoc{loc}
		}
		run.Results = append(run.Results, res)
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
