package source

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultIgnoreDirs are build output, dependency and tooling directories
// that never hold first-party source.
var DefaultIgnoreDirs = []string{
	"node_modules", "vendor", ".git", ".svn", ".hg",
	"dist", "build", "bin", "obj", "out", "target",
	"packages", "coverage", ".angular",
	".idea", ".vscode", ".vs",
}

// WalkOptions configures directory traversal
type WalkOptions struct {
	IgnoreDirs     []string // nil means DefaultIgnoreDirs
	IgnorePatterns []string // base-name globs to skip, e.g. "*.min.js"
	IncludeHidden  bool
}

// Walk visits every file and directory under root that survives the ignore
// rules. Return filepath.SkipDir from visit to prune a directory.
func Walk(root string, opts WalkOptions, visit func(path string, info os.FileInfo) error) error {
	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = DefaultIgnoreDirs
	}
	skip := make(map[string]bool, len(ignoreDirs))
	for _, d := range ignoreDirs {
		skip[d] = true
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return visit(path, info)
		}

		name := info.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if skip[name] {
				return filepath.SkipDir
			}
			return visit(path, info)
		}
		for _, pattern := range opts.IgnorePatterns {
			if matched, _ := filepath.Match(pattern, name); matched {
				return nil
			}
		}
		return visit(path, info)
	})
}
