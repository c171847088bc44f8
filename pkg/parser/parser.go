// Package parser extracts lightweight structural facts from source files.
//
// These are regex scanners, not language front-ends: they find import
// statements, type declarations and function declarations well enough to
// build a file-level dependency graph. Anything they miss simply does not
// become an edge.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kuntumseroja/techdocgen/pkg/source"
)

// Facts are the structural facts of one file, in source order.
type Facts struct {
	Imports   []string
	Classes   []string
	Functions []string
}

// Parser turns file content into Facts.
type Parser interface {
	Parse(content string) (*Facts, error)
}

// Registry maps a language identifier to its Parser.
type Registry map[string]Parser

// For returns the parser for a language, or nil.
func (r Registry) For(language string) Parser {
	if r == nil {
		return nil
	}
	return r[language]
}

// DefaultRegistry returns parsers for every language the source package detects.
func DefaultRegistry() Registry {
	js := &regexParser{
		imports: []*regexp.Regexp{
			regexp.MustCompile(`\bimport\s+(?:type\s+)?(?:[\w*{}\s,$]+?\s+from\s+)?['"]([^'"\n]+)['"]`),
			regexp.MustCompile(`\bexport\s+(?:type\s+)?[\w*{}\s,$]+?\s+from\s+['"]([^'"\n]+)['"]`),
			regexp.MustCompile(`\brequire\(\s*['"]([^'"\n]+)['"]\s*\)`),
			regexp.MustCompile(`\bimport\(\s*['"]([^'"\n]+)['"]\s*\)`),
		},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`\bclass\s+([A-Za-z_$][\w$]*)`),
		},
		functions: []*regexp.Regexp{
			regexp.MustCompile(`\bfunction\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`),
			regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`),
		},
	}
	ts := &regexParser{
		imports:   js.imports,
		classes:   append([]*regexp.Regexp{regexp.MustCompile(`\binterface\s+([A-Za-z_$][\w$]*)`)}, js.classes...),
		functions: js.functions,
	}

	return Registry{
		source.LangJava: &regexParser{
			imports: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`),
			},
			classes: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:class|interface|enum|record)\s+([A-Z]\w*)`),
			},
			functions: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|static|final|abstract|synchronized)\s+)+[\w<>\[\],.?]+\s+(\w+)\s*\(`),
			},
		},
		source.LangCSharp: &regexParser{
			imports: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*(?:global\s+)?using\s+(?:static\s+)?(?:\w+\s*=\s*)?([\w.]+)\s*;`),
			},
			classes: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:class|interface|struct|record|enum)\s+([A-Z]\w*)`),
			},
			functions: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|internal|static|async|override|virtual|abstract|sealed)\s+)+[\w<>\[\],.?]+\s+(\w+)\s*\(`),
			},
		},
		source.LangVBNet: &regexParser{
			imports: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^\s*Imports\s+(?:\w+\s*=\s*)?([\w.]+)`),
			},
			classes: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^\s*(?:(?:Public|Private|Friend|Partial|MustInherit|NotInheritable)\s+)*(?:Class|Module|Interface|Structure)\s+(\w+)`),
			},
			functions: []*regexp.Regexp{
				regexp.MustCompile(`(?im)^\s*(?:(?:Public|Private|Protected|Friend|Shared|Overrides|Overridable|Async)\s+)*(?:Sub|Function)\s+(\w+)`),
			},
		},
		source.LangFSharp: &regexParser{
			imports: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*open\s+([\w.]+)`),
			},
			classes: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*(?:type|and)\s+(?:private\s+|internal\s+)?([A-Z]\w*)`),
			},
			functions: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*let\s+(?:rec\s+|inline\s+|private\s+)*([a-z_]\w*)\s+[\w(]`),
			},
		},
		source.LangPHP: &regexParser{
			imports: []*regexp.Regexp{
				regexp.MustCompile(`(?m)^\s*use\s+([\w\\]+)(?:\s+as\s+\w+)?\s*;`),
				regexp.MustCompile(`\b(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"\n]+)['"]`),
			},
			grouped: regexp.MustCompile(`(?m)^\s*use\s+(?:function\s+|const\s+)?([\w\\]*\w)\\\{([^}]*)\}\s*;`),
			classes: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:class|interface|trait|enum)\s+([A-Z]\w*)`),
			},
			functions: []*regexp.Regexp{
				regexp.MustCompile(`\bfunction\s+(\w+)\s*\(`),
			},
		},
		source.LangJavaScript: js,
		source.LangTypeScript: ts,
		source.LangConfig:     configParser{},
	}
}

type regexParser struct {
	imports   []*regexp.Regexp
	// grouped matches a namespace prefix (group 1) and a comma-separated
	// member list (group 2); each member becomes its own import.
	grouped   *regexp.Regexp
	classes   []*regexp.Regexp
	functions []*regexp.Regexp
}

func (p *regexParser) Parse(content string) (*Facts, error) {
	imports := scan(content, p.imports)
	if p.grouped != nil {
		imports = append(imports, scanGrouped(content, p.grouped)...)
	}
	return &Facts{
		Imports:   values(imports),
		Classes:   values(scan(content, p.classes)),
		Functions: values(scan(content, p.functions)),
	}, nil
}

type hit struct {
	at  int
	val string
}

// scan runs every pattern and returns the first capture group of each match.
func scan(content string, patterns []*regexp.Regexp) []hit {
	var hits []hit
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			hits = append(hits, hit{at: m[0], val: content[m[2]:m[3]]})
		}
	}
	return hits
}

// scanGrouped expands `use App\Models\{User, Post as P};` into one hit per
// member, all at the position of the statement.
func scanGrouped(content string, re *regexp.Regexp) []hit {
	var hits []hit
	for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
		prefix := content[m[2]:m[3]]
		for _, member := range strings.Split(content[m[4]:m[5]], ",") {
			fields := strings.Fields(member)
			if len(fields) > 1 && (fields[0] == "function" || fields[0] == "const") {
				fields = fields[1:]
			}
			if len(fields) == 0 {
				continue
			}
			hits = append(hits, hit{at: m[0], val: prefix + `\` + fields[0]})
		}
	}
	return hits
}

// values orders hits by position in content.
func values(hits []hit) []string {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.val)
	}
	return out
}

// configParser only checks that a config file is well-formed; config files
// have no imports.
type configParser struct{}

func (configParser) Parse(content string) (*Facts, error) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err == nil {
		return &Facts{}, nil
	}
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("config is neither JSON nor YAML: %w", err)
	}
	return &Facts{}, nil
}
