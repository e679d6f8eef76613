package graph

import "sort"

// Component is one connected component of a canonical graph.
type Component struct {
	// NodeIDs lists member ids in graph order.
	NodeIDs []string `json:"nodeIds"`
	Edges   int      `json:"edges"`
	// Weight is the summed weight of the member edges.
	Weight float64 `json:"weight"`
}

// Components splits g into connected components, ignoring edge direction.
// The result is sorted by size, largest first; ties keep graph order.
func Components(g *Graph) []Component {
	if g == nil || len(g.Nodes) == 0 {
		return nil
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n.ID] = i
	}

	adj := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		si, okS := index[e.Source]
		ti, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		adj[si] = append(adj[si], ti)
		adj[ti] = append(adj[ti], si)
	}

	// BFS over every unvisited node.
	comp := make([]int, len(g.Nodes))
	for i := range comp {
		comp[i] = -1
	}
	var members [][]int
	for i := range g.Nodes {
		if comp[i] >= 0 {
			continue
		}
		c := len(members)
		comp[i] = c
		queue := []int{i}
		var m []int
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			m = append(m, n)
			for _, nb := range adj[n] {
				if comp[nb] < 0 {
					comp[nb] = c
					queue = append(queue, nb)
				}
			}
		}
		sort.Ints(m)
		members = append(members, m)
	}

	out := make([]Component, len(members))
	for c, m := range members {
		ids := make([]string, len(m))
		for j, i := range m {
			ids[j] = g.Nodes[i].ID
		}
		out[c].NodeIDs = ids
	}
	for _, e := range g.Edges {
		si, ok := index[e.Source]
		if !ok {
			continue
		}
		if _, ok := index[e.Target]; !ok {
			continue
		}
		out[comp[si]].Edges++
		out[comp[si]].Weight += e.Weight
	}

	sort.SliceStable(out, func(a, b int) bool {
		return len(out[a].NodeIDs) > len(out[b].NodeIDs)
	})
	return out
}
