package arcir

// CFG is the precomputed control-flow shape of one function: successor and
// predecessor edges, reverse-postorder, and immediate dominators. Passes
// that need repeated predecessor/postorder queries (liveness, edge cleanup,
// the verifier) build one CFG per function rather than recomputing these
// relations ad hoc.
type CFG struct {
	fn *Function

	succs map[BlockId][]BlockId
	preds map[BlockId][]BlockId

	postorder []BlockId // blocks in postorder
	rpo       []BlockId // blocks in reverse postorder

	idom map[BlockId]BlockId // immediate dominator; entry maps to itself
}

// BuildCFG computes successor/predecessor edges, postorder, and dominance
// for fn. fn's terminators must already be set on every block.
func BuildCFG(fn *Function) *CFG {
	c := &CFG{
		fn:    fn,
		succs: make(map[BlockId][]BlockId, len(fn.Blocks)),
		preds: make(map[BlockId][]BlockId, len(fn.Blocks)),
	}
	for _, b := range fn.Blocks {
		if b.Term == nil {
			continue
		}
		for _, t := range b.Term.Targets() {
			c.succs[b.id] = append(c.succs[b.id], t)
			c.preds[t] = append(c.preds[t], b.id)
		}
	}
	c.computePostorder()
	c.computeDominators()
	return c
}

// Successors returns the blocks b's terminator may transfer to.
func (c *CFG) Successors(b BlockId) []BlockId { return c.succs[b] }

// Predecessors returns every block whose terminator may transfer to b.
func (c *CFG) Predecessors(b BlockId) []BlockId { return c.preds[b] }

// Postorder returns every reachable block in postorder.
func (c *CFG) Postorder() []BlockId { return c.postorder }

// ReversePostorder returns every reachable block in reverse postorder, the
// natural forward-iteration order for most dataflow passes.
func (c *CFG) ReversePostorder() []BlockId { return c.rpo }

func (c *CFG) computePostorder() {
	visited := make(map[BlockId]bool, len(c.fn.Blocks))
	var order []BlockId

	var visit func(b BlockId)
	visit = func(b BlockId) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range c.succs[b] {
			visit(s)
		}
		order = append(order, b)
	}
	visit(c.fn.EntryBlock)

	c.postorder = order
	c.rpo = make([]BlockId, len(order))
	for i, b := range order {
		c.rpo[len(order)-1-i] = b
	}
}

// computeDominators implements the Cooper/Harvey/Kennedy iterative
// dominance algorithm over reverse postorder, converging in a small fixed
// number of passes on the control-flow shapes lowering produces (no
// irreducible loops: every back edge targets a block already dominating its
// source).
func (c *CFG) computeDominators() {
	rpoIndex := make(map[BlockId]int, len(c.rpo))
	for i, b := range c.rpo {
		rpoIndex[b] = i
	}

	idom := make(map[BlockId]BlockId, len(c.rpo))
	entry := c.fn.EntryBlock
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range c.rpo {
			if b == entry {
				continue
			}
			var newIdom BlockId
			has := false
			for _, p := range c.preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !has {
					newIdom = p
					has = true
					continue
				}
				newIdom = c.intersect(p, newIdom, idom, rpoIndex)
			}
			if !has {
				continue
			}
			if prev, ok := idom[b]; !ok || prev != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	c.idom = idom
}

func (c *CFG) intersect(a, b BlockId, idom map[BlockId]BlockId, rpoIndex map[BlockId]int) BlockId {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// ImmediateDominator returns b's immediate dominator. The entry block is its
// own immediate dominator.
func (c *CFG) ImmediateDominator(b BlockId) (BlockId, bool) {
	d, ok := c.idom[b]
	return d, ok
}

// Dominates reports whether a dominates b (every path from the entry to b
// passes through a). Every block dominates itself.
func (c *CFG) Dominates(a, b BlockId) bool {
	if a == b {
		return true
	}
	cur, ok := c.idom[b]
	for ok {
		if cur == a {
			return true
		}
		if cur == c.fn.EntryBlock {
			return cur == a
		}
		next, nextOK := c.idom[cur]
		if !nextOK || next == cur {
			return false
		}
		cur = next
	}
	return false
}
