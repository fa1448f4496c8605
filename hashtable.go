package zdb

// RehashWork bounds the number of entries migrated from the older table to
// the newer one on any single table operation, so that a resize never stalls
// the caller with an O(n) rehash.
const RehashWork = 128

// MaxLoad is the load factor (entries per bucket) that triggers a resize.
const MaxLoad = 8

const initialBuckets = 4

// Store lets a single generic Table index entries that live in someone
// else's arena: the caller supplies the cached hash code and the intrusive
// "next" link for a given Handle, and Table does the bucketing, chaining
// and progressive rehashing on top.
type Store interface {
	HashCode(h Handle) uint32
	Next(h Handle) Handle
	SetNext(h Handle, next Handle)
}

// bucketTable is one generation (newer or older) of a Table: a fixed-size
// array of chain heads.
type bucketTable struct {
	buckets []Handle
	mask    uint32
	size    int
}

func newBucketTable(n int) bucketTable {
	b := bucketTable{buckets: make([]Handle, n), mask: uint32(n - 1)}
	for i := range b.buckets {
		b.buckets[i] = NilHandle
	}
	return b
}

func (tb *bucketTable) insert(store Store, h Handle) {
	i := store.HashCode(h) & tb.mask
	store.SetNext(h, tb.buckets[i])
	tb.buckets[i] = h
	tb.size++
}

// locate walks the chain at hashCode's bucket, returning the matching
// handle (if any) along with the handle immediately preceding it in the
// chain (NilHandle if it is the chain head) so the caller can detach it
// without a second walk.
func (tb *bucketTable) locate(store Store, hashCode uint32, eq func(Handle) bool) (found, prev Handle, bucket uint32) {
	if tb.buckets == nil {
		return NilHandle, NilHandle, 0
	}
	bucket = hashCode & tb.mask
	prev = NilHandle
	cur := tb.buckets[bucket]
	for cur != NilHandle {
		if store.HashCode(cur) == hashCode && eq(cur) {
			return cur, prev, bucket
		}
		prev = cur
		cur = store.Next(cur)
	}
	return NilHandle, NilHandle, bucket
}

func (tb *bucketTable) detach(store Store, prev Handle, bucket uint32, found Handle) {
	if prev == NilHandle {
		tb.buckets[bucket] = store.Next(found)
	} else {
		store.SetNext(prev, store.Next(found))
	}
	store.SetNext(found, NilHandle)
	tb.size--
}

// Table is a chained hash index with progressive rehashing: resizes never
// block on a full rehash, instead migrating at most RehashWork entries from
// the older generation on every Insert/Lookup/Delete until it drains.
type Table struct {
	newer, older bucketTable
	migrPos      uint32
}

// Size returns the total number of entries across both generations.
func (t *Table) Size() int {
	return t.newer.size + t.older.size
}

// Insert adds h, keyed by store.HashCode(h), possibly triggering a resize.
func (t *Table) Insert(store Store, h Handle) {
	if t.newer.buckets == nil {
		t.newer = newBucketTable(initialBuckets)
	}
	t.newer.insert(store, h)
	if t.older.buckets == nil && uint32(t.newer.size) >= (t.newer.mask+1)*MaxLoad {
		t.triggerRehash()
	}
	t.helpRehash(store)
}

// Lookup returns the handle whose hash code matches hashCode and for which
// eq reports true, or NilHandle.
func (t *Table) Lookup(store Store, hashCode uint32, eq func(Handle) bool) Handle {
	t.helpRehash(store)
	if found, _, _ := t.newer.locate(store, hashCode, eq); found != NilHandle {
		return found
	}
	found, _, _ := t.older.locate(store, hashCode, eq)
	return found
}

// Delete removes and returns the handle matching hashCode/eq, or NilHandle
// if no such entry exists.
func (t *Table) Delete(store Store, hashCode uint32, eq func(Handle) bool) Handle {
	t.helpRehash(store)
	if found, prev, bucket := t.newer.locate(store, hashCode, eq); found != NilHandle {
		t.newer.detach(store, prev, bucket, found)
		return found
	}
	if found, prev, bucket := t.older.locate(store, hashCode, eq); found != NilHandle {
		t.older.detach(store, prev, bucket, found)
		return found
	}
	return NilHandle
}

// Clear drops both generations, returning the table to its zero state.
func (t *Table) Clear() {
	*t = Table{}
}

func (t *Table) triggerRehash() {
	t.older = t.newer
	t.newer = newBucketTable(int(t.older.mask+1) * 2)
	t.migrPos = 0
}

// helpRehash migrates up to RehashWork entries from older into newer. It is
// called from every Table operation, so a resize's cost is amortized across
// the requests that follow it rather than paid in one spike.
func (t *Table) helpRehash(store Store) {
	work := 0
	for work < RehashWork && t.older.size > 0 {
		if t.older.buckets[t.migrPos] == NilHandle {
			t.migrPos++
			continue
		}
		h := t.older.buckets[t.migrPos]
		t.older.buckets[t.migrPos] = store.Next(h)
		t.older.size--
		store.SetNext(h, NilHandle)
		t.newer.insert(store, h)
		work++
	}
	if t.older.size == 0 && t.older.buckets != nil {
		t.older = bucketTable{}
	}
}
