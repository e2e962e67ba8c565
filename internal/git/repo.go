// Package git reads project sources from a git repository through go-git,
// without shelling out to a git binary.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/varalys/vibeguard/internal/files"
	"github.com/varalys/vibeguard/internal/ignore"
	"github.com/varalys/vibeguard/internal/types"
)

// validateRoot validates and normalizes a git repository root path.
// Returns the cleaned absolute path or an error if invalid.
func validateRoot(root string) (string, error) {
	// Check for null bytes (potential injection)
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

func open(root string) (*gogit.Repository, error) {
	validRoot, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	repo, err := gogit.PlainOpenWithOptions(validRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}
	return repo, nil
}

// FilesAt loads the text files of the tree at rev (a branch, tag, hash or
// expression such as HEAD~1), filtered by cfg and the working tree's
// .vibeguardignore. Paths are slash-separated and sorted.
func FilesAt(root, rev string, cfg files.Config) (files.Source, error) {
	var src files.Source
	repo, err := open(root)
	if err != nil {
		return src, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return src, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return src, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return src, fmt.Errorf("load tree %s: %w", hash, err)
	}
	ign, _ := ignore.Load(filepath.Join(root, ignore.FileName))
	err = tree.Files().ForEach(func(f *object.File) error {
		if !cfg.Allowed(f.Name, f.Size) || ign.Match(f.Name) {
			return nil
		}
		if bin, err := f.IsBinary(); err != nil || bin {
			return nil
		}
		content, err := f.Contents()
		if err != nil {
			return nil
		}
		if strings.Contains(content, "vibeguard:ignore-file") {
			return nil
		}
		if f.Name == files.ManifestName {
			m := content
			src.Manifest = &m
		}
		src.Files = append(src.Files, types.File{Path: f.Name, Content: content})
		return nil
	})
	if err != nil {
		return src, fmt.Errorf("read tree %s: %w", hash, err)
	}
	sort.Slice(src.Files, func(i, j int) bool { return src.Files[i].Path < src.Files[j].Path })
	return src, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned on failure.
func RepoMetadata(root string) (string, string, string) {
	r, err := open(root)
	if err != nil {
		return "", "", ""
	}
	repo := ""
	if remote, err := r.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		s := strings.TrimSuffix(remote.Config().URLs[0], ".git")
		// keep owner/name when possible
		if i := strings.LastIndex(s, ":"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.Index(s, "github.com/"); i >= 0 {
			s = s[i+len("github.com/"):]
		}
		repo = strings.TrimPrefix(s, "//")
	}
	commit, branch := "", ""
	if head, err := r.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		}
	}
	return repo, commit, branch
}
