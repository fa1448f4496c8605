package zdb

import (
	"fmt"
	"math/rand"
	"testing"
)

// bagEntry is a minimal Store implementation for exercising Table in
// isolation, independent of ZSet or Keyspace.
type bagEntry struct {
	key   string
	code  uint32
	next  Handle
	freed bool
}

type bag struct {
	entries []bagEntry
}

func (b *bag) HashCode(h Handle) uint32   { return b.entries[h].code }
func (b *bag) Next(h Handle) Handle       { return b.entries[h].next }
func (b *bag) SetNext(h Handle, n Handle) { b.entries[h].next = n }

func (b *bag) add(key string) Handle {
	b.entries = append(b.entries, bagEntry{key: key, code: sdbmHash([]byte(key)), next: NilHandle})
	return Handle(len(b.entries) - 1)
}

func TestTableInsertLookupDelete(t *testing.T) {
	b := &bag{}
	tb := &Table{}

	const n = 5000
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		h := b.add(key)
		handles[i] = h
		tb.Insert(b, h)
	}

	if tb.Size() != n {
		t.Log("table size", tb.Size(), "expected", n)
		t.FailNow()
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		code := sdbmHash([]byte(key))
		found := tb.Lookup(b, code, func(h Handle) bool { return b.entries[h].key == key })
		if found != handles[i] {
			t.Log("lookup for", key, "returned", found, "expected", handles[i])
			t.FailNow()
		}
	}

	r := rand.New(rand.NewSource(7))
	order := r.Perm(n)
	for count, i := range order {
		key := fmt.Sprintf("key-%d", i)
		code := sdbmHash([]byte(key))
		found := tb.Delete(b, code, func(h Handle) bool { return b.entries[h].key == key })
		if found != handles[i] {
			t.Log("delete for", key, "returned", found, "expected", handles[i])
			t.FailNow()
		}
		want := n - count - 1
		if tb.Size() != want {
			t.Log("table size", tb.Size(), "expected", want)
			t.FailNow()
		}
	}

	if tb.newer.size != 0 || tb.older.size != 0 {
		t.Log("table not empty after deleting every entry")
		t.FailNow()
	}
}

// TestTableRehashDrainsOlderGeneration checks that after enough inserts to
// trigger a resize, repeated operations eventually migrate every entry out
// of the older generation (bounded progressive work per call, not one
// blocking rehash).
func TestTableRehashDrainsOlderGeneration(t *testing.T) {
	b := &bag{}
	tb := &Table{}

	const n = initialBuckets * MaxLoad * 4
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("rehash-%d", i)
		h := b.add(key)
		tb.Insert(b, h)
	}

	if tb.older.buckets != nil {
		t.Log("older generation still present long after it should have drained")
		t.FailNow()
	}
	if tb.Size() != n {
		t.Log("size", tb.Size(), "expected", n)
		t.FailNow()
	}
}

func TestTableClear(t *testing.T) {
	b := &bag{}
	tb := &Table{}

	for i := 0; i < 100; i++ {
		h := b.add(fmt.Sprintf("c%d", i))
		tb.Insert(b, h)
	}
	tb.Clear()
	if tb.Size() != 0 {
		t.Log("size after Clear:", tb.Size())
		t.FailNow()
	}
}
