// Package correlation groups files into technology buckets and reports
// whether .NET and Node.js messaging code coexist in one codebase.
//
// The cross-stack signal only says both sides exist. It does not prove that
// they talk to each other; the integration graph is the place to check that.
package correlation

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/kuntumseroja/techdocgen/pkg/depgraph"
	"github.com/kuntumseroja/techdocgen/pkg/source"
)

// Bucket names a technology bucket.
type Bucket string

const (
	DotNetMessaging Bucket = "csharp_messaging"
	NodeMessaging   Bucket = "node_messaging"
	WebFrontend     Bucket = "angular_files"
)

// Rule classifies files into a bucket. A file matches when its language is
// listed (or Languages is empty) and at least one keyword occurs in the
// content or one suffix ends the file name. A keyword ending in a word
// character only matches where the identifier ends, so IBus does not match
// IBusinessRule.
type Rule struct {
	Bucket    Bucket
	Languages []string
	Keywords  []string
	Suffixes  []string
}

// DefaultRules returns the built-in bucket rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Bucket:    DotNetMessaging,
			Languages: []string{source.LangCSharp, source.LangVBNet, source.LangFSharp},
			Keywords: []string{
				"MassTransit", "RabbitMQ.Client", "ReceiveEndpoint", "IConsumer<",
				"IPublishEndpoint", "ISendEndpointProvider", "IBus",
			},
		},
		{
			Bucket:    NodeMessaging,
			Languages: []string{source.LangJavaScript, source.LangTypeScript},
			Keywords: []string{
				"amqplib", "amqp-connection-manager", "rascal",
				"assertQueue(", "assertExchange(", "sendToQueue(",
			},
		},
		{
			Bucket: WebFrontend,
			Keywords: []string{
				"@angular/",
			},
			Suffixes: []string{
				".component.ts", ".component.html", ".module.ts", ".service.ts",
				".guard.ts", ".pipe.ts", "angular.json",
			},
		},
	}
}

// Entry is one file in a bucket with the rule terms it matched.
type Entry struct {
	File    string   `json:"file"`
	Matches []string `json:"matches"`
}

// Signal is the correlation result.
type Signal struct {
	DotNetMessaging []Entry `json:"csharp_messaging"`
	NodeMessaging   []Entry `json:"node_messaging"`
	WebFrontend     []Entry `json:"angular_files"`
}

// CrossStack reports whether both messaging buckets are non-empty.
func (s Signal) CrossStack() bool {
	return len(s.DotNetMessaging) > 0 && len(s.NodeMessaging) > 0
}

// Label is the human-readable cross-stack indicator.
func (s Signal) Label() string {
	if s.CrossStack() {
		return "Detected"
	}
	return "Not detected"
}

// Analyzer applies bucket rules.
type Analyzer struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	keywords []keyword
}

type keyword struct {
	text string
	re   *regexp.Regexp
}

// NewAnalyzer creates an analyzer; no rules means DefaultRules.
func NewAnalyzer(rules ...Rule) *Analyzer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	a := &Analyzer{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{Rule: r}
		for _, k := range r.Keywords {
			cr.keywords = append(cr.keywords, compileKeyword(k))
		}
		a.rules = append(a.rules, cr)
	}
	return a
}

// compileKeyword anchors identifier-like keywords at their end. The start is
// left open so AddMassTransit still counts as MassTransit.
func compileKeyword(k string) keyword {
	if k == "" || !isWordByte(k[len(k)-1]) {
		return keyword{text: k}
	}
	return keyword{text: k, re: regexp.MustCompile(regexp.QuoteMeta(k) + `\b`)}
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// Analyze classifies with the default rules.
func Analyze(files []source.FileRecord, m depgraph.DependencyMap) Signal {
	return NewAnalyzer().Analyze(files, m)
}

// Analyze classifies every node of the dependency map. Records supply the
// content of those nodes; nodes without a record are classified by path and
// language only. Entries are sorted by file ID.
func (a *Analyzer) Analyze(files []source.FileRecord, m depgraph.DependencyMap) Signal {
	byID := make(map[string]source.FileRecord, len(files))
	for _, f := range files {
		if _, dup := byID[f.ID()]; !dup {
			byID[f.ID()] = f
		}
	}

	nodes := append([]depgraph.Node(nil), m.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	s := Signal{
		DotNetMessaging: []Entry{},
		NodeMessaging:   []Entry{},
		WebFrontend:     []Entry{},
	}
	for _, n := range nodes {
		rec, ok := byID[n.ID]
		if !ok {
			rec = source.FileRecord{Path: n.Path, RelativePath: n.ID, Language: n.Language}
		}
		for _, r := range a.rules {
			matches := r.match(rec)
			if len(matches) == 0 {
				continue
			}
			e := Entry{File: n.ID, Matches: matches}
			switch r.Bucket {
			case DotNetMessaging:
				s.DotNetMessaging = appendOnce(s.DotNetMessaging, e)
			case NodeMessaging:
				s.NodeMessaging = appendOnce(s.NodeMessaging, e)
			case WebFrontend:
				s.WebFrontend = appendOnce(s.WebFrontend, e)
			}
		}
	}
	return s
}

func (r compiledRule) match(f source.FileRecord) []string {
	if len(r.Languages) > 0 && !contains(r.Languages, f.Language) {
		return nil
	}
	var matches []string
	name := strings.ToLower(path.Base(f.ID()))
	for _, suffix := range r.Suffixes {
		if strings.HasSuffix(name, suffix) {
			matches = append(matches, suffix)
		}
	}
	for _, k := range r.keywords {
		if k.matches(f.Content) {
			matches = append(matches, k.text)
		}
	}
	return matches
}

func (k keyword) matches(content string) bool {
	if k.re != nil {
		return k.re.MatchString(content)
	}
	return strings.Contains(content, k.text)
}

// appendOnce merges matches when a second rule hits the same file.
func appendOnce(entries []Entry, e Entry) []Entry {
	if n := len(entries); n > 0 && entries[n-1].File == e.File {
		entries[n-1].Matches = append(entries[n-1].Matches, e.Matches...)
		return entries
	}
	return append(entries, e)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
