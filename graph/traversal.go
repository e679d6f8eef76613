package graph

// Subgraph returns the part of g reachable from the seed names within
// maxDepth hops, walking edges in both directions. Seeds are resolved
// through the alias table, so a discarded spelling reaches its canonical
// node. Node degrees are recomputed for the returned edge set.
func Subgraph(g *Graph, seeds []string, maxDepth int) *Graph {
	out := &Graph{Nodes: []Node{}, Edges: []Edge{}, Aliases: AliasTable{}}
	if g == nil || len(seeds) == 0 || maxDepth < 0 {
		return out
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n.ID] = i
	}

	// Build adjacency: node id -> neighbour ids.
	neighbours := make(map[string][]string)
	for _, e := range g.Edges {
		neighbours[e.Source] = append(neighbours[e.Source], e.Target)
		neighbours[e.Target] = append(neighbours[e.Target], e.Source)
	}

	visited := make(map[string]bool)
	var queue []string
	for _, s := range seeds {
		id := g.Aliases.Resolve(s)
		if _, ok := index[id]; !ok || visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, id)
	}

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []string
		for _, id := range queue {
			for _, nid := range neighbours[id] {
				if !visited[nid] {
					visited[nid] = true
					next = append(next, nid)
				}
			}
		}
		queue = next
	}

	// Keep the original node order.
	pos := make(map[string]int, len(visited))
	for _, n := range g.Nodes {
		if visited[n.ID] {
			n.Degree = 0
			pos[n.ID] = len(out.Nodes)
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if !visited[e.Source] || !visited[e.Target] {
			continue
		}
		out.Nodes[pos[e.Source]].Degree++
		out.Nodes[pos[e.Target]].Degree++
		out.Edges = append(out.Edges, e)
	}
	for alias, id := range g.Aliases {
		if visited[id] {
			out.Aliases[alias] = id
		}
	}

	out.Stats = Stats{
		OriginalNodes:   len(g.Nodes),
		NormalizedNodes: len(out.Nodes),
		OriginalEdges:   len(g.Edges),
		NormalizedEdges: len(out.Edges),
		Aliases:         len(out.Aliases),
	}
	return out
}
