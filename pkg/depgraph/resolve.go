package depgraph

import (
	"path"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kuntumseroja/techdocgen/pkg/source"
)

// DefaultResolveCacheSize bounds the per-run resolution memo.
const DefaultResolveCacheSize = 4096

var scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Resolver maps import strings to known node IDs. Resolution is best effort:
// an import that matches nothing is external.
//
// Lookups are by lower-cased, extension-less path:
//   - relative JS/TS and PHP include paths are joined with the importer's
//     directory and must match exactly (index files included);
//   - dotted or backslashed names (Java, C#, VB, F#, PHP namespaces) match
//     a file whose path ends with the name, shortest path first;
//   - failing that they match every file in a directory whose path ends
//     with the name, with dots in directory names read as separators.
type Resolver struct {
	exact  map[string][]string // stem -> ids
	byBase map[string][]string // last stem segment -> ids
	dirs   map[string][]string // normalised dir -> ids
	stems  map[string]string   // id -> normalised stem
	cache  *lru.Cache[string, resolution]
}

// NewResolver indexes nodes for resolution.
func NewResolver(nodes []Node, cacheSize int) *Resolver {
	if cacheSize <= 0 {
		cacheSize = DefaultResolveCacheSize
	}
	cache, err := lru.New[string, resolution](cacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}

	r := &Resolver{
		exact:  make(map[string][]string),
		byBase: make(map[string][]string),
		dirs:   make(map[string][]string),
		stems:  make(map[string]string),
		cache:  cache,
	}
	for _, n := range nodes {
		stem := strings.ToLower(trimExt(n.ID))
		r.exact[stem] = append(r.exact[stem], n.ID)

		dir, base := path.Split(stem)
		dir = normaliseDir(dir)
		norm := base
		if dir != "" {
			norm = dir + "/" + base
		}
		r.stems[n.ID] = norm
		r.byBase[base] = append(r.byBase[base], n.ID)
		r.dirs[dir] = append(r.dirs[dir], n.ID)
	}
	for _, m := range []map[string][]string{r.exact, r.byBase, r.dirs} {
		for k := range m {
			sort.Strings(m[k])
		}
	}
	return r
}

// Resolve returns the node IDs that imp, imported from the node from,
// refers to. The result is empty for external imports. A namespace import
// never includes the importer itself.
func (r *Resolver) Resolve(from, language, imp string) []string {
	imp = strings.TrimSpace(imp)
	if imp == "" {
		return nil
	}

	relative := isRelative(language, imp)
	key := language + "\x00" + imp
	if relative {
		key = path.Dir(from) + "\x00" + key
	}
	res, ok := r.cache.Get(key)
	if !ok {
		res = r.resolve(from, language, imp, relative)
		r.cache.Add(key, res)
	}
	if !res.namespace {
		return res.targets
	}

	out := make([]string, 0, len(res.targets))
	for _, t := range res.targets {
		if t != from {
			out = append(out, t)
		}
	}
	return out
}

// resolution is a cached lookup result; namespace marks directory matches.
type resolution struct {
	targets   []string
	namespace bool
}

func (r *Resolver) resolve(from, language, imp string, relative bool) resolution {
	switch language {
	case source.LangJavaScript, source.LangTypeScript:
		if relative {
			return resolution{targets: r.exactStem(path.Join(path.Dir(from), imp), true)}
		}
		spec := strings.TrimPrefix(strings.TrimPrefix(imp, "@/"), "~/")
		if spec == imp && (strings.HasPrefix(imp, "@") || !strings.Contains(imp, "/")) {
			// bare or scoped package
			return resolution{}
		}
		return resolution{targets: r.suffixFile(strings.ToLower(trimScriptExt(spec)))}

	case source.LangPHP:
		if relative {
			if hit := r.exactStem(path.Join(path.Dir(from), imp), false); len(hit) > 0 {
				return resolution{targets: hit}
			}
			return resolution{targets: r.suffixFile(strings.ToLower(trimExt(path.Clean(imp))))}
		}
		return r.qualified(strings.ReplaceAll(strings.Trim(imp, `\`), `\`, "/"))

	default:
		return r.qualified(strings.ReplaceAll(imp, ".", "/"))
	}
}

// qualified resolves a slash-separated qualified name.
func (r *Resolver) qualified(name string) resolution {
	name = strings.ToLower(strings.Trim(name, "/"))
	if trimmed, ok := strings.CutSuffix(name, "/*"); ok {
		if hit := r.namespace(trimmed); len(hit) > 0 {
			return resolution{targets: hit, namespace: true}
		}
		// static wildcard import of a type's members
		return resolution{targets: r.suffixFile(trimmed)}
	}
	if hit := r.suffixFile(name); len(hit) > 0 {
		return resolution{targets: hit}
	}
	if hit := r.namespace(name); len(hit) > 0 {
		return resolution{targets: hit, namespace: true}
	}
	// member import such as a static method or nested type
	if i := strings.LastIndexByte(name, '/'); i > 0 {
		return resolution{targets: r.suffixFile(name[:i])}
	}
	return resolution{}
}

// exactStem matches a joined relative path exactly, probing index files for
// scripts.
func (r *Resolver) exactStem(joined string, script bool) []string {
	joined = path.Clean(joined)
	var stem string
	if script {
		stem = strings.ToLower(trimScriptExt(joined))
	} else {
		stem = strings.ToLower(trimExt(joined))
	}
	if ids := r.exact[stem]; len(ids) > 0 {
		return ids[:1]
	}
	if script {
		if ids := r.exact[stem+"/index"]; len(ids) > 0 {
			return ids[:1]
		}
	}
	return nil
}

// suffixFile picks the file whose normalised stem equals name or ends with
// "/"+name, preferring the shortest path.
func (r *Resolver) suffixFile(name string) []string {
	if name == "" {
		return nil
	}
	base := name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		base = name[i+1:]
	}

	best := ""
	for _, id := range r.byBase[base] {
		stem := r.stems[id]
		if stem != name && !strings.HasSuffix(stem, "/"+name) {
			continue
		}
		if best == "" || len(id) < len(best) {
			best = id
		}
	}
	if best == "" {
		return nil
	}
	return []string{best}
}

// namespace returns every file directly inside a directory matching name.
func (r *Resolver) namespace(name string) []string {
	if name == "" {
		return nil
	}
	var out []string
	for dir, ids := range r.dirs {
		if dir == name || strings.HasSuffix(dir, "/"+name) {
			out = append(out, ids...)
		}
	}
	sort.Strings(out)
	return out
}

func isRelative(language, imp string) bool {
	switch language {
	case source.LangJavaScript, source.LangTypeScript:
		return strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") || imp == "." || imp == ".."
	case source.LangPHP:
		return !strings.Contains(imp, `\`) && strings.ContainsAny(imp, "/.")
	}
	return false
}

func normaliseDir(dir string) string {
	return strings.ReplaceAll(strings.Trim(dir, "/"), ".", "/")
}

func trimExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

func trimScriptExt(p string) string {
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(strings.ToLower(p), ext) {
			return p[:len(p)-len(ext)]
		}
	}
	return p
}
