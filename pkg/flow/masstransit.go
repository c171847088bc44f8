package flow

import (
	"regexp"
	"sort"
	"strings"
)

var (
	mtReceiveEndpoint = regexp.MustCompile(`ReceiveEndpoint\s*\(\s*['"]([^'"]+)['"]`)
	mtConsumer        = regexp.MustCompile(`Consumer<\s*([\w.]+)\s*>`)
	mtSaga            = regexp.MustCompile(`(?:Saga|StateMachineSaga)<\s*([\w.]+)\s*>`)
	mtPublish         = regexp.MustCompile(`\.Publish<\s*([\w.]+)\s*>|\bPublish\(\s*new\s+([\w.]+)`)
	mtSend            = regexp.MustCompile(`\.Send<\s*([\w.]+)\s*>|\bSend\(\s*new\s+([\w.]+)`)
	mtSendEndpoint    = regexp.MustCompile(`GetSendEndpoint\(\s*new\s+Uri\(\s*['"]([^'"]+)['"]`)
	mtClassDecl       = regexp.MustCompile(`\bclass\s+(\w+)(?:<[^>{]*>)?\s*:\s*([^{]+)\{`)
	mtIConsumer       = regexp.MustCompile(`\bIConsumer<\s*([\w.]+)\s*>`)
)

// MassTransit extracts receive endpoints, consumers, sagas and typed
// publish/send calls from C# bus configuration.
type MassTransit struct{}

// Extract implements Extractor.
func (MassTransit) Extract(content string) Topology {
	var topo Topology

	for _, m := range mtReceiveEndpoint.FindAllStringSubmatchIndex(content, -1) {
		queue := content[m[2]:m[3]]
		block := blockAfter(content, m[1])

		topo.Queues = append(topo.Queues, Queue{Name: queue, Durable: true})
		for _, c := range uniqueSorted(captures(mtConsumer, block)) {
			topo.Consumers = append(topo.Consumers, Consumer{Queue: queue, Service: c})
		}
		for _, s := range uniqueSorted(captures(mtSaga, block)) {
			topo.Consumers = append(topo.Consumers, Consumer{Queue: queue, Service: s, Saga: true})
		}
	}

	for _, t := range uniqueSorted(captures(mtPublish, content)) {
		topo.Messages = append(topo.Messages, Message{Kind: MessagePublish, Type: t})
	}
	for _, t := range uniqueSorted(captures(mtSend, content)) {
		topo.Messages = append(topo.Messages, Message{Kind: MessageSend, Type: t})
	}

	for _, m := range mtClassDecl.FindAllStringSubmatch(content, -1) {
		class, bases := m[1], m[2]
		for _, t := range uniqueSorted(captures(mtIConsumer, bases)) {
			topo.Messages = append(topo.Messages, Message{Kind: MessageConsume, Type: t, Service: class})
		}
	}

	topo.SendEndpoints = uniqueSorted(captures(mtSendEndpoint, content))
	for _, uri := range topo.SendEndpoints {
		if p, ok := publisherForURI(uri); ok {
			topo.Publishers = append(topo.Publishers, p)
		}
	}

	return topo
}

// publisherForURI maps a MassTransit send address to a publisher target.
// Supported forms are "queue:name", "exchange:name", "topic:name" and
// "scheme://host/[vhost/]name".
func publisherForURI(uri string) (Publisher, bool) {
	addr, _, _ := strings.Cut(uri, "?")
	if scheme, rest, ok := strings.Cut(addr, ":"); ok && !strings.HasPrefix(rest, "//") {
		switch strings.ToLower(scheme) {
		case "queue":
			return Publisher{Queue: rest}, rest != ""
		case "exchange", "topic":
			return Publisher{Exchange: rest}, rest != ""
		}
		return Publisher{}, false
	}
	if i := strings.Index(addr, "://"); i >= 0 {
		path := strings.TrimRight(addr[i+3:], "/")
		slash := strings.LastIndexByte(path, '/')
		if slash < 0 {
			return Publisher{}, false
		}
		name := path[slash+1:]
		return Publisher{Queue: name}, name != ""
	}
	return Publisher{}, false
}

// captures returns the first non-empty capture group of every match.
func captures(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
