// Package source turns a directory tree into FileRecords.
//
// A FileRecord is immutable once read: it carries the path on disk, the path
// relative to the analysed root, a detected language and the file content.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
)

// Language identifiers produced by Detect.
const (
	LangJava       = "java"
	LangCSharp     = "csharp"
	LangVBNet      = "vbnet"
	LangFSharp     = "fsharp"
	LangPHP        = "php"
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangConfig     = "config"
	LangMarkup     = "markup"
)

// DefaultMaxFileSize skips generated bundles and data dumps.
const DefaultMaxFileSize = 1 << 20

var extLanguages = map[string]string{
	".java": LangJava,
	".cs":   LangCSharp,
	".vb":   LangVBNet,
	".fs":   LangFSharp,
	".fsx":  LangFSharp,
	".fsi":  LangFSharp,
	".php":  LangPHP,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTypeScript,
	".json": LangConfig,
	".yaml": LangConfig,
	".yml":  LangConfig,
	".html": LangMarkup,
}

// FileRecord is one source file handed to the analysis packages.
type FileRecord struct {
	Path         string
	RelativePath string
	Language     string
	Content      string
}

// ID is the stable identifier used as the dependency graph node id.
func (f FileRecord) ID() string {
	if f.RelativePath != "" {
		return filepath.ToSlash(f.RelativePath)
	}
	return filepath.ToSlash(f.Path)
}

// Detect returns the language for a path, or "" when it is not analysed.
func Detect(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}

// Options configures ReadDir.
type Options struct {
	Walk        WalkOptions
	Include     []string // glob patterns on the base name; empty means all known languages
	MaxFileSize int64    // 0 means DefaultMaxFileSize, negative disables the limit
}

// ReadDir reads every analysable file under root, sorted by relative path.
// An empty directory yields an empty slice. A missing or unreadable root is
// an InputError.
func ReadDir(root string, opts Options) ([]FileRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, apperr.Input("read dir", root, err)
	}
	if !info.IsDir() {
		rec, err := ReadFile(root, filepath.Dir(root))
		if err != nil {
			return nil, err
		}
		return []FileRecord{rec}, nil
	}

	limit := opts.MaxFileSize
	if limit == 0 {
		limit = DefaultMaxFileSize
	}

	var records []FileRecord
	err = Walk(root, opts.Walk, func(path string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		if Detect(path) == "" || !included(info.Name(), opts.Include) {
			return nil
		}
		if limit > 0 && info.Size() > limit {
			return nil
		}
		rec, err := ReadFile(path, root)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, apperr.Input("walk", root, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RelativePath < records[j].RelativePath
	})
	return records, nil
}

// ReadFile reads a single file; root is used to compute the relative path.
func ReadFile(path, root string) (FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileRecord{}, apperr.Input("read file", path, err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return FileRecord{}, apperr.Input("read file", path, fmt.Errorf("relative path: %w", err))
	}
	return FileRecord{
		Path:         path,
		RelativePath: filepath.ToSlash(rel),
		Language:     Detect(path),
		Content:      string(data),
	}, nil
}

func included(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
