package vibeguard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/varalys/vibeguard/internal/git"
	"github.com/varalys/vibeguard/pkg/core"
)

const uploadSchemaVersion = "1"

type uploadEnvelope struct {
	Tool    string         `json:"tool"`
	Version string         `json:"version"`
	Schema  string         `json:"schema_version"`
	Repo    string         `json:"repo,omitempty"`
	Commit  string         `json:"commit,omitempty"`
	Branch  string         `json:"branch,omitempty"`
	Audit   core.FullAudit `json:"audit"`
}

func newUploadEnvelope(rootPath string, noMeta bool, a core.FullAudit) uploadEnvelope {
	env := uploadEnvelope{Tool: "vibeguard", Version: version, Schema: uploadSchemaVersion, Audit: a}
	if !noMeta {
		// Best-effort git metadata
		env.Repo, env.Commit, env.Branch = git.RepoMetadata(rootPath)
	}
	return env
}

func uploadAudit(rootPath, url, token string, noMeta bool, a core.FullAudit) error {
	if len(a.Findings) == 0 {
		return nil
	}
	body, err := json.Marshal(newUploadEnvelope(rootPath, noMeta, a))
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload status %d", resp.StatusCode)
	}
	return nil
}
