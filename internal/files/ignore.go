package files

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/varalys/vibeguard/internal/ignore"
)

// AppendIgnore ensures the given pattern is present in .vibeguardignore at
// root. It creates the file if missing. Idempotent.
func AppendIgnore(root, pattern string) error {
	path := filepath.Join(root, ignore.FileName)
	// read existing lines if present
	existing := map[string]bool{}
	if f, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			existing[line] = true
		}
		_ = f.Close()
	}
	if existing[pattern] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return err
	}
	return nil
}

// DefaultGeneratedIgnores returns common generated patterns that are safe to ignore.
func DefaultGeneratedIgnores() []string {
	return []string{
		"*.pb.go",
		"*.gen.*",
		"*.generated.*",
		"public/build/",
		"storybook-static/",
	}
}
