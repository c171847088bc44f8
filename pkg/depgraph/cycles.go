package depgraph

import (
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// findCycles reports one elementary cycle per strongly connected component
// that has more than one member or a self-loop. Each cycle starts at the
// lexically smallest member of its component; cycles are ordered by that
// member and at most max are returned.
func findCycles(nodes []Node, edges []Edge, max int) [][]string {
	cycles := [][]string{}
	if len(nodes) == 0 || len(edges) == 0 {
		return cycles
	}

	g := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for _, n := range nodes {
		_ = g.AddVertex(n.ID)
	}

	adjacency := make(map[string][]string)
	selfLoop := make(map[string]bool)
	for _, e := range edges {
		if e.Source == e.Target {
			selfLoop[e.Source] = true
			continue
		}
		// duplicates report ErrEdgeAlreadyExists
		if err := g.AddEdge(e.Source, e.Target); err != nil {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}
	for k := range adjacency {
		sort.Strings(adjacency[k])
	}

	components, err := graphlib.StronglyConnectedComponents(g)
	if err != nil {
		return cycles
	}

	for _, comp := range components {
		switch {
		case len(comp) > 1:
			cycles = append(cycles, cycleIn(comp, adjacency))
		case len(comp) == 1 && selfLoop[comp[0]]:
			cycles = append(cycles, []string{comp[0]})
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	if max > 0 && len(cycles) > max {
		cycles = cycles[:max]
	}
	return cycles
}

// cycleIn finds the shortest cycle through the smallest member of a strongly
// connected component, staying inside the component.
func cycleIn(comp []string, adjacency map[string][]string) []string {
	members := make(map[string]bool, len(comp))
	start := comp[0]
	for _, id := range comp {
		members[id] = true
		if id < start {
			start = id
		}
	}

	parent := map[string]string{}
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range adjacency[u] {
			if !members[v] {
				continue
			}
			if v == start {
				return pathTo(u, start, parent)
			}
			if !visited[v] {
				visited[v] = true
				parent[v] = u
				queue = append(queue, v)
			}
		}
	}
	// unreachable for a true SCC
	sorted := append([]string(nil), comp...)
	sort.Strings(sorted)
	return sorted
}

func pathTo(end, start string, parent map[string]string) []string {
	path := []string{end}
	for cur := end; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
