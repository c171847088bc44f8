package flow

import (
	"fmt"
	"strings"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/kuntumseroja/techdocgen/pkg/source"
)

// Rule binds an Extractor to the files it applies to.
type Rule struct {
	Source    Source
	Languages []string
	// Keywords gate the extractor: at least one must appear in the content.
	// An empty list accepts every file of a matching language.
	Keywords  []string
	Extractor Extractor
}

func (r Rule) accepts(language, content string) bool {
	matched := false
	for _, l := range r.Languages {
		if l == language {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if len(r.Keywords) == 0 {
		return true
	}
	for _, k := range r.Keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}

// Registry selects the extractor for a file. Rules are tried in order and
// the first accepting rule wins.
type Registry struct {
	rules []Rule
}

// NewRegistry creates a registry from rules.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// DefaultRegistry knows MassTransit, amqplib and infrastructure config files.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Rule{
			Source:    SourceMassTransit,
			Languages: []string{source.LangCSharp},
			Keywords:  []string{"MassTransit", "ReceiveEndpoint"},
			Extractor: MassTransit{},
		},
		Rule{
			Source:    SourceAmqplib,
			Languages: []string{source.LangJavaScript, source.LangTypeScript},
			Keywords:  []string{"amqplib", ".publish(", ".sendToQueue("},
			Extractor: Amqplib{},
		},
		Rule{
			Source:    SourceInfraConfig,
			Languages: []string{source.LangConfig},
			Extractor: InfraConfig{},
		},
	)
}

// Register appends a rule.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Extract runs the matching extractor for a file. ok is false when no rule
// accepts the file or the topology is empty. A panicking extractor is
// reported as an ExtractionError and treated as having found nothing.
func (r *Registry) Extract(path, language, content string) (src Source, topo Topology, ok bool, err error) {
	for _, rule := range r.rules {
		if !rule.accepts(language, content) {
			continue
		}
		topo, err = safeExtract(rule.Extractor, content)
		if err != nil {
			return rule.Source, Topology{}, false, apperr.Extraction(path, err)
		}
		if topo.Empty() {
			return rule.Source, topo, false, nil
		}
		return rule.Source, topo, true, nil
	}
	return "", Topology{}, false, nil
}

func safeExtract(e Extractor, content string) (topo Topology, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extractor panic: %v", rec)
		}
	}()
	return e.Extract(content), nil
}
