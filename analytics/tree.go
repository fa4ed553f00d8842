package analytics

// =============================================================================
// TREE BUILDER
// =============================================================================

// Node is one organization in a built tree. Parent and Children hold org IDs;
// the Tree is the arena that resolves them.
type Node struct {
	Organization
	Metrics  Metrics
	Parent   string   // resolved parent, "" for a root
	Children []string // in roster order
}

// Tree is an org chart rebuilt from flat parent links with the metrics of
// one period attached. It is never mutated after BuildTree returns.
type Tree struct {
	Period Period

	// Roots in roster order: organizations without a parent, with a parent
	// that is not in the roster, or detached to break a cycle.
	Roots []string

	// Detached lists organizations whose parent link was dropped because it
	// closed a cycle.
	Detached []string

	// Duplicates lists repeated org IDs; only the first occurrence is kept.
	Duplicates []string

	nodes map[string]*Node
	order []string
}

// BuildTree reconstructs the hierarchy and attaches the metrics matching
// period to every node. Records of other periods are ignored. Nodes without
// records get ZeroMetrics.
func BuildTree(orgs []Organization, period Period, records Records) *Tree {
	t := &Tree{
		Period: period,
		nodes:  make(map[string]*Node, len(orgs)),
		order:  make([]string, 0, len(orgs)),
	}

	// Pass 1: arena in roster order.
	for _, org := range orgs {
		if _, dup := t.nodes[org.ID]; dup {
			t.Duplicates = append(t.Duplicates, org.ID)
			continue
		}
		t.nodes[org.ID] = &Node{Organization: org, Metrics: ZeroMetrics(org.ID, period)}
		t.order = append(t.order, org.ID)
	}

	parents := resolveParents(t.order, t.nodes)
	t.Detached = breakCycles(t.order, parents)

	// Pass 2: link children in roster order.
	for _, id := range t.order {
		node := t.nodes[id]
		if p := parents[id]; p != "" {
			node.Parent = p
			parent := t.nodes[p]
			parent.Children = append(parent.Children, id)
			continue
		}
		t.Roots = append(t.Roots, id)
	}

	attachMetrics(t, period, records)
	return t
}

// resolveParents maps every node to its parent when that parent is known.
// Dangling and self references resolve to "".
func resolveParents(order []string, nodes map[string]*Node) map[string]string {
	parents := make(map[string]string, len(order))
	for _, id := range order {
		p := nodes[id].ParentID
		if _, ok := nodes[p]; ok && p != id {
			parents[id] = p
		}
	}
	return parents
}

// breakCycles removes one parent link per cycle: the link of the member that
// comes first in roster order. It returns the detached members.
func breakCycles(order []string, parents map[string]string) []string {
	const (
		unvisited = iota
		onPath
		done
	)
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	state := make(map[string]int, len(order))
	var detached []string
	for _, start := range order {
		var path []string
		cur := start
		for cur != "" && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = parents[cur]
		}
		if cur != "" && state[cur] == onPath {
			members := cycleFrom(path, cur)
			head := members[0]
			for _, m := range members[1:] {
				if position[m] < position[head] {
					head = m
				}
			}
			delete(parents, head)
			detached = append(detached, head)
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return detached
}

func cycleFrom(path []string, start string) []string {
	for i, id := range path {
		if id == start {
			return path[i:]
		}
	}
	return nil
}

func attachMetrics(t *Tree, period Period, records Records) {
	seen := make(map[string]bool)
	for _, h := range records.Headcount {
		if n, ok := t.nodes[h.OrgID]; ok && h.Period == period {
			if seen[h.OrgID] {
				n.Metrics.Headcount = n.Metrics.Headcount.Add(h)
			} else {
				n.Metrics.Headcount = h
				seen[h.OrgID] = true
			}
		}
	}
	clear(seen)
	for _, p := range records.Payroll {
		if n, ok := t.nodes[p.OrgID]; ok && p.Period == period {
			if seen[p.OrgID] {
				n.Metrics.Payroll = n.Metrics.Payroll.Add(p)
			} else {
				n.Metrics.Payroll = p
				seen[p.OrgID] = true
			}
		}
	}
	clear(seen)
	for _, a := range records.Attendance {
		if n, ok := t.nodes[a.OrgID]; ok && a.Period == period {
			if seen[a.OrgID] {
				n.Metrics.Attendance = n.Metrics.Attendance.Add(a)
			} else {
				n.Metrics.Attendance = a
				seen[a.OrgID] = true
			}
		}
	}
}

// =============================================================================
// TREE ACCESS
// =============================================================================

// Len returns the number of distinct organizations in the tree.
func (t *Tree) Len() int { return len(t.order) }

// Node returns a copy of the node for id.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Children returns copies of the direct children of id in roster order.
func (t *Tree) Children(id string) []Node {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]Node, len(n.Children))
	for i, c := range n.Children {
		out[i] = t.nodes[c].clone()
	}
	return out
}

// Walk visits nodes depth-first from each root in order. Returning false from
// fn skips the node's subtree.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n := t.nodes[id]
		if !fn(n.clone(), depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.Roots {
		visit(r, 0)
	}
}

func (n *Node) clone() Node {
	c := *n
	c.Children = append([]string(nil), n.Children...)
	return c
}
