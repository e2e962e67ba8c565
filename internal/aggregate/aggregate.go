// Package aggregate merges scanner output into one severity-ordered list.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/varalys/vibeguard/internal/types"
)

// Summary counts findings by severity.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
	Total    int `json:"total"`
}

// Count returns the number of findings at severity s.
func (s Summary) Count(sev types.Severity) int {
	switch sev {
	case types.SevCritical:
		return s.Critical
	case types.SevHigh:
		return s.High
	case types.SevMedium:
		return s.Medium
	case types.SevLow:
		return s.Low
	case types.SevInfo:
		return s.Info
	}
	return 0
}

// Check verifies that Total equals n and the sum of the per-severity counts.
func (s Summary) Check(n int) error {
	sum := s.Critical + s.High + s.Medium + s.Low + s.Info
	if s.Total != n || sum != n {
		return fmt.Errorf("summary mismatch: total=%d sum=%d findings=%d", s.Total, sum, n)
	}
	return nil
}

// Summarize counts findings by severity. Findings with an unknown severity
// are counted as info.
func Summarize(findings []types.Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case types.SevCritical:
			s.Critical++
		case types.SevHigh:
			s.High++
		case types.SevMedium:
			s.Medium++
		case types.SevLow:
			s.Low++
		default:
			s.Info++
		}
	}
	s.Total = len(findings)
	return s
}

// Sort orders findings by severity rank, keeping input order among equals.
func Sort(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() < findings[j].Severity.Rank()
	})
}

// Aggregate concatenates static, dependency and heuristic findings in that
// order and sorts the result by severity. The inputs are not modified.
func Aggregate(static, dependency, heuristic []types.Finding) (Summary, []types.Finding) {
	all := make([]types.Finding, 0, len(static)+len(dependency)+len(heuristic))
	all = append(all, static...)
	all = append(all, dependency...)
	all = append(all, heuristic...)
	Sort(all)
	s := Summarize(all)
	if err := s.Check(len(all)); err != nil {
		panic(err)
	}
	return s, all
}

// Categories returns the distinct categories of findings in the fixed
// category order.
func Categories(findings []types.Finding) []types.Category {
	seen := map[types.Category]bool{}
	for _, f := range findings {
		seen[f.Category] = true
	}
	out := []types.Category{}
	for _, c := range types.Categories {
		if seen[c] {
			out = append(out, c)
			delete(seen, c)
		}
	}
	// categories outside the known set, sorted for stability
	var extra []string
	for c := range seen {
		extra = append(extra, string(c))
	}
	sort.Strings(extra)
	for _, c := range extra {
		out = append(out, types.Category(c))
	}
	return out
}
