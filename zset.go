package zdb

import "bytes"

// member is one arena slot: a sorted-set entry's tree linkage, hash
// linkage and payload all live here, addressed by Handle from both
// indices at once.
type member struct {
	key   []byte
	score float64

	hashCode uint32
	hnext    Handle

	left, right, parent Handle
	height, size        int32
}

// ZSet is a sorted set: an order-statistic AVL tree keyed by (score,
// member) for ordered and ranked access, plus a chained hash index keyed
// by member bytes for O(1) membership lookup, both addressing the same
// member arena.
type ZSet struct {
	members  []member
	freeList []Handle
	index    Table
	root     Handle
}

// NewZSet returns an empty sorted set.
func NewZSet() *ZSet {
	return &ZSet{root: NilHandle}
}

// HashCode, Next and SetNext implement Store, letting the member arena
// serve as the backing store for its own hash index.
func (zs *ZSet) HashCode(h Handle) uint32   { return zs.members[h].hashCode }
func (zs *ZSet) Next(h Handle) Handle       { return zs.members[h].hnext }
func (zs *ZSet) SetNext(h Handle, n Handle) { zs.members[h].hnext = n }

func (zs *ZSet) alloc(key []byte, score float64, hashCode uint32) Handle {
	m := member{
		key:      append([]byte(nil), key...),
		score:    score,
		hashCode: hashCode,
		hnext:    NilHandle,
		left:     NilHandle,
		right:    NilHandle,
		parent:   NilHandle,
		height:   1,
		size:     1,
	}
	if n := len(zs.freeList); n > 0 {
		h := zs.freeList[n-1]
		zs.freeList = zs.freeList[:n-1]
		zs.members[h] = m
		return h
	}
	zs.members = append(zs.members, m)
	return Handle(len(zs.members) - 1)
}

func (zs *ZSet) release(h Handle) {
	zs.members[h] = member{}
	zs.freeList = append(zs.freeList, h)
}

// Lookup returns the handle of the member with the given name, or
// NilHandle.
func (zs *ZSet) Lookup(key []byte) Handle {
	if zs.root == NilHandle {
		return NilHandle
	}
	hashCode := sdbmHash(key)
	return zs.index.Lookup(zs, hashCode, func(h Handle) bool {
		return bytes.Equal(zs.members[h].key, key)
	})
}

// Insert sets key's score, creating the member if it doesn't already
// exist. Re-inserting an existing member deletes and recreates it, since
// its position in the score-ordered tree may change.
func (zs *ZSet) Insert(key []byte, score float64) {
	if existing := zs.Lookup(key); existing != NilHandle {
		zs.Delete(existing)
	}
	hashCode := sdbmHash(key)
	h := zs.alloc(key, score, hashCode)
	zs.index.Insert(zs, h)
	zs.treeInsert(h)
}

func (zs *ZSet) treeInsert(h Handle) {
	if zs.root == NilHandle {
		zs.root = h
		return
	}
	cur := zs.root
	var parent Handle
	for cur != NilHandle {
		parent = cur
		if zs.compareMembers(h, cur) < 0 {
			cur = zs.members[cur].left
		} else {
			cur = zs.members[cur].right
		}
	}
	zs.members[h].parent = parent
	if zs.compareMembers(h, parent) < 0 {
		zs.members[parent].left = h
	} else {
		zs.members[parent].right = h
	}
	zs.root = zs.fixFrom(h)
}

// Delete removes the member identified by h, freeing its arena slot.
func (zs *ZSet) Delete(h Handle) {
	if h == NilHandle {
		return
	}
	zs.root = zs.deleteNode(h)
	zs.index.Delete(zs, zs.members[h].hashCode, func(x Handle) bool { return x == h })
	zs.release(h)
}

// SeekGE returns the handle of the least member not less than (score,
// key) in (score, member) order, or NilHandle if every member sorts
// before it.
func (zs *ZSet) SeekGE(score float64, key []byte) Handle {
	cur := zs.root
	var candidate Handle = NilHandle
	for cur != NilHandle {
		n := &zs.members[cur]
		if n.score > score || (n.score == score && bytes.Compare(n.key, key) >= 0) {
			candidate = cur
			cur = n.left
		} else {
			cur = n.right
		}
	}
	return candidate
}

// RankRange returns the members whose zero-based rank falls in [lo, hi]
// inclusive, in ascending order. Negative indices count back from the
// end, as with Python slicing; out-of-range bounds are clamped.
func (zs *ZSet) RankRange(lo, hi int64) []Handle {
	n := int64(zs.Cardinality())
	if n == 0 {
		return nil
	}
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo > hi {
		return nil
	}

	out := make([]Handle, 0, hi-lo+1)
	cur := zs.rankDescend(zs.root, lo)
	for cur != NilHandle && int64(len(out)) < hi-lo+1 {
		out = append(out, cur)
		cur = zs.successor(cur)
	}
	return out
}

// Cardinality returns the number of members in the set.
func (zs *ZSet) Cardinality() int {
	return int(zs.nodeSize(zs.root))
}

// Clear empties the set, releasing its arena.
func (zs *ZSet) Clear() {
	zs.members = nil
	zs.freeList = nil
	zs.index = Table{}
	zs.root = NilHandle
}

// Key returns h's member name.
func (zs *ZSet) Key(h Handle) []byte { return zs.members[h].key }

// Score returns h's score.
func (zs *ZSet) Score(h Handle) float64 { return zs.members[h].score }
