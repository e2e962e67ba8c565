package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/varalys/vibeguard/internal/disclosure"
)

func resultsPath(root string) string {
	// Store in .git directory or repo root
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "vibeguard_last_audit.json")
	}
	return filepath.Join(root, ".vibeguard_last_audit.json")
}

// SaveAudit stores the most recent full audit for root, so export and
// baseline commands can reuse it without rescanning.
func SaveAudit(root string, a disclosure.FullAudit) error {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return writePrivate(resultsPath(root), b)
}

// LoadAudit loads the last full audit saved for root.
func LoadAudit(root string) (disclosure.FullAudit, error) {
	var a disclosure.FullAudit
	f, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(f, &a); err != nil {
		return a, err
	}
	return a, nil
}
