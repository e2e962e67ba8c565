// Package audit keeps a JSONL history of audits run from the CLI. Records
// hold counts and categories only, never finding detail.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/varalys/vibeguard/internal/aggregate"
	"github.com/varalys/vibeguard/internal/types"
)

type ScanRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	AuditID        string            `json:"audit_id"`
	Root           string            `json:"root"`
	Revision       string            `json:"revision,omitempty"`
	Summary        aggregate.Summary `json:"summary"`
	Categories     []types.Category  `json:"categories,omitempty"`
	NewFindings    int               `json:"new_findings"`
	BaselinedCount int               `json:"baselined_count"`
	FilesScanned   int               `json:"files_scanned"`
	FilesFailed    int               `json:"files_failed,omitempty"`
	Duration       string            `json:"duration"`
	BaselineFile   string            `json:"baseline_file,omitempty"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".vibeguard_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "vibeguard_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// LoadHistory returns records newest first.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.AuditID == "" {
		record.AuditID = fmt.Sprintf("audit_%d", time.Now().Unix())
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}

	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.Create(a.logPath)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

func CreateScanRecord(
	root string,
	auditID string,
	allFindings []types.Finding,
	newFindings []types.Finding,
	filesScanned int,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	return ScanRecord{
		Timestamp:      time.Now().UTC(),
		AuditID:        auditID,
		Root:           root,
		Summary:        aggregate.Summarize(allFindings),
		Categories:     aggregate.Categories(allFindings),
		NewFindings:    len(newFindings),
		BaselinedCount: len(allFindings) - len(newFindings),
		FilesScanned:   filesScanned,
		Duration:       duration.String(),
		BaselineFile:   baselineFile,
	}
}
