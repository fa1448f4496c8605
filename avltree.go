package zdb

import "bytes"

// Order-statistic AVL tree over a ZSet's member arena, keyed by (score,
// member) and carrying a subtree-size field alongside the usual height, so
// rank and rank-range queries run in O(log n + k) instead of an O(n) scan.
// Descendant handles are stored rather than pointers: rotations and the
// delete splice only ever rewrite Handle fields in the arena, never move
// entries between slots.

func (zs *ZSet) nodeHeight(h Handle) int32 {
	if h == NilHandle {
		return 0
	}
	return zs.members[h].height
}

func (zs *ZSet) nodeSize(h Handle) int32 {
	if h == NilHandle {
		return 0
	}
	return zs.members[h].size
}

// recompute refreshes h's height and size from its two children. Callers
// must have already recomputed (or not yet touched) the children.
func (zs *ZSet) recompute(h Handle) {
	n := &zs.members[h]
	lh, rh := zs.nodeHeight(n.left), zs.nodeHeight(n.right)
	if lh > rh {
		n.height = lh + 1
	} else {
		n.height = rh + 1
	}
	n.size = zs.nodeSize(n.left) + zs.nodeSize(n.right) + 1
}

// compareMembers orders entries by score, then by member bytes. A strict
// byte-prefix always compares less in bytes.Compare, which already gives
// the "shorter member sorts first on a tied prefix" tiebreak.
func (zs *ZSet) compareMembers(a, b Handle) int {
	ma, mb := &zs.members[a], &zs.members[b]
	if ma.score != mb.score {
		if ma.score < mb.score {
			return -1
		}
		return 1
	}
	return bytes.Compare(ma.key, mb.key)
}

// rotateLeft rotates h down and to the left, promoting h's right child.
// Returns the new subtree root.
func (zs *ZSet) rotateLeft(h Handle) Handle {
	newRoot := zs.members[h].right
	nr := &zs.members[newRoot]
	node := &zs.members[h]

	node.right = nr.left
	if nr.left != NilHandle {
		zs.members[nr.left].parent = h
	}
	nr.left = h
	nr.parent = node.parent
	node.parent = newRoot

	zs.recompute(h)
	zs.recompute(newRoot)
	return newRoot
}

// rotateRight is the mirror image of rotateLeft.
func (zs *ZSet) rotateRight(h Handle) Handle {
	newRoot := zs.members[h].left
	nr := &zs.members[newRoot]
	node := &zs.members[h]

	node.left = nr.right
	if nr.right != NilHandle {
		zs.members[nr.right].parent = h
	}
	nr.right = h
	nr.parent = node.parent
	node.parent = newRoot

	zs.recompute(h)
	zs.recompute(newRoot)
	return newRoot
}

// fixLeft handles a left-heavy imbalance at h, pre-rotating h's left child
// left when it is itself right-heavy (the LR case) before the main
// right rotation.
func (zs *ZSet) fixLeft(h Handle) Handle {
	left := zs.members[h].left
	ln := &zs.members[left]
	if zs.nodeHeight(ln.left) < zs.nodeHeight(ln.right) {
		zs.members[h].left = zs.rotateLeft(left)
	}
	return zs.rotateRight(h)
}

// fixRight is the mirror image of fixLeft, for right-heavy imbalances.
func (zs *ZSet) fixRight(h Handle) Handle {
	right := zs.members[h].right
	rn := &zs.members[right]
	if zs.nodeHeight(rn.right) < zs.nodeHeight(rn.left) {
		zs.members[h].right = zs.rotateRight(right)
	}
	return zs.rotateLeft(h)
}

// fixFrom walks upward from h, recomputing height/size and rebalancing any
// node whose children differ by more than one level, relinking each
// rebalanced subtree into its parent as it goes. Returns the handle of the
// tree's (possibly new) root.
func (zs *ZSet) fixFrom(h Handle) Handle {
	for h != NilHandle {
		zs.recompute(h)
		node := &zs.members[h]
		lh, rh := zs.nodeHeight(node.left), zs.nodeHeight(node.right)

		parent := node.parent
		var parentLink *Handle
		if parent != NilHandle {
			p := &zs.members[parent]
			if p.left == h {
				parentLink = &p.left
			} else {
				parentLink = &p.right
			}
		}

		switch {
		case lh > rh+1:
			h = zs.fixLeft(h)
		case rh > lh+1:
			h = zs.fixRight(h)
		}

		if parentLink == nil {
			zs.members[h].parent = NilHandle
			return h
		}
		*parentLink = h
		h = parent
	}
	return NilHandle
}

// deleteTrivial splices out a node with at most one child, then rebalances
// from its former parent upward. Returns the new tree root.
func (zs *ZSet) deleteTrivial(target Handle) Handle {
	t := &zs.members[target]
	replacement := t.left
	if replacement == NilHandle {
		replacement = t.right
	}
	parent := t.parent

	if replacement != NilHandle {
		zs.members[replacement].parent = parent
	}

	if parent == NilHandle {
		return replacement
	}

	p := &zs.members[parent]
	if p.left == target {
		p.left = replacement
	} else {
		p.right = replacement
	}
	return zs.fixFrom(parent)
}

// deleteNode removes node from the tree, returning the new tree root. A
// node with two children is spliced out by swapping it with its in-order
// successor (the leftmost node of its right subtree): the successor is
// unlinked via deleteTrivial and then relinked into node's old position,
// inheriting node's links and subtree metrics. node itself is never freed
// here; the caller (ZSet.Delete) releases the arena slot afterward.
func (zs *ZSet) deleteNode(node Handle) Handle {
	n := zs.members[node]
	if n.left == NilHandle || n.right == NilHandle {
		return zs.deleteTrivial(node)
	}

	successor := n.right
	for zs.members[successor].left != NilHandle {
		successor = zs.members[successor].left
	}

	newRoot := zs.deleteTrivial(successor)

	target := zs.members[node]
	s := &zs.members[successor]
	s.left = target.left
	s.right = target.right
	s.parent = target.parent
	s.height = target.height
	s.size = target.size

	if s.left != NilHandle {
		zs.members[s.left].parent = successor
	}
	if s.right != NilHandle {
		zs.members[s.right].parent = successor
	}

	if target.parent == NilHandle {
		newRoot = successor
	} else {
		p := &zs.members[target.parent]
		if p.left == node {
			p.left = successor
		} else {
			p.right = successor
		}
	}
	return newRoot
}

// rankDescend walks down from root looking for the entry at zero-based rank
// r within the in-order sequence of the subtree rooted at root.
func (zs *ZSet) rankDescend(root Handle, r int64) Handle {
	cur := root
	for cur != NilHandle {
		n := &zs.members[cur]
		leftSize := int64(zs.nodeSize(n.left))
		switch {
		case r == leftSize:
			return cur
		case r < leftSize:
			cur = n.left
		default:
			r -= leftSize + 1
			cur = n.right
		}
	}
	return NilHandle
}

// successor returns the in-order successor of h within the tree, or
// NilHandle if h is the last entry.
func (zs *ZSet) successor(h Handle) Handle {
	n := &zs.members[h]
	if n.right != NilHandle {
		cur := n.right
		for zs.members[cur].left != NilHandle {
			cur = zs.members[cur].left
		}
		return cur
	}
	cur, parent := h, n.parent
	for parent != NilHandle && zs.members[parent].right == cur {
		cur = parent
		parent = zs.members[parent].parent
	}
	return parent
}
