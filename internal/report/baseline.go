package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/varalys/vibeguard/internal/types"
)

// Baseline records fingerprints of accepted findings.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// Fingerprint identifies a finding across runs. IDs are regenerated every
// scan, so the fingerprint uses the finding's content instead.
func Fingerprint(f types.Finding) string {
	h := xxhash.New()
	for _, part := range []string{string(f.Category), f.Title, f.File, f.Code} {
		_, _ = h.WriteString(part)
		_, _ = h.WriteString("|")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[Fingerprint(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// FilterNewFindings drops findings present in base.
func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !base.Items[Fingerprint(f)] {
			out = append(out, f)
		}
	}
	return out
}

// ShouldFail reports whether any finding is at or above the failOn
// severity. An unknown threshold defaults to high.
func ShouldFail(findings []types.Finding, failOn string) bool {
	th := types.Severity(failOn)
	if !th.Valid() {
		th = types.SevHigh
	}
	for _, f := range findings {
		if f.Severity.Rank() <= th.Rank() {
			return true
		}
	}
	return false
}
