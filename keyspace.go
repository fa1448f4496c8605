package zdb

import (
	"bytes"
	"errors"
)

// ErrNotString is returned when a string-only operation targets a cell
// already holding a sorted set.
var ErrNotString = errors.New("key exists and is not a string")

// ErrNotSortedSet is returned when a sorted-set operation targets a cell
// already holding a string.
var ErrNotSortedSet = errors.New("key exists and is not a sorted set")

// cellSlot is one arena slot of the keyspace: a name, its hash linkage,
// and the tagged value the name resolves to.
type cellSlot struct {
	name []byte
	kind valueKind
	str  []byte
	zset *ZSet

	hashCode uint32
	next     Handle
}

// Keyspace is the top-level name -> cell map described by the wire
// protocol's GET/SET/DEL/ZADD family: a chained hash index (the same
// Table used internally by every ZSet) over an arena of tagged cells.
type Keyspace struct {
	table Table
	cells []cellSlot
	free  []Handle
}

// NewKeyspace returns an empty keyspace.
func NewKeyspace() *Keyspace {
	return &Keyspace{}
}

// HashCode, Next and SetNext implement Store for the keyspace's own
// table.
func (ks *Keyspace) HashCode(h Handle) uint32   { return ks.cells[h].hashCode }
func (ks *Keyspace) Next(h Handle) Handle       { return ks.cells[h].next }
func (ks *Keyspace) SetNext(h Handle, n Handle) { ks.cells[h].next = n }

func (ks *Keyspace) find(name []byte) Handle {
	hashCode := sdbmHash(name)
	return ks.table.Lookup(ks, hashCode, func(h Handle) bool {
		return bytes.Equal(ks.cells[h].name, name)
	})
}

func (ks *Keyspace) allocCell(name []byte, kind valueKind, str []byte, zs *ZSet) Handle {
	c := cellSlot{
		name:     append([]byte(nil), name...),
		kind:     kind,
		str:      str,
		zset:     zs,
		hashCode: sdbmHash(name),
		next:     NilHandle,
	}
	var h Handle
	if n := len(ks.free); n > 0 {
		h = ks.free[n-1]
		ks.free = ks.free[:n-1]
		ks.cells[h] = c
	} else {
		ks.cells = append(ks.cells, c)
		h = Handle(len(ks.cells) - 1)
	}
	ks.table.Insert(ks, h)
	return h
}

// GetString returns name's string value. found reports whether the key
// exists at all; err is ErrNotString if it exists but holds a sorted set.
func (ks *Keyspace) GetString(name []byte) (val []byte, found bool, err error) {
	h := ks.find(name)
	if h == NilHandle {
		return nil, false, nil
	}
	c := &ks.cells[h]
	if c.kind != kindString {
		return nil, true, ErrNotString
	}
	return c.str, true, nil
}

// SetString assigns name's string value, creating the key if absent. It
// returns ErrNotString if name already holds a sorted set.
func (ks *Keyspace) SetString(name, val []byte) error {
	h := ks.find(name)
	if h != NilHandle {
		c := &ks.cells[h]
		if c.kind != kindString {
			return ErrNotString
		}
		c.str = append([]byte(nil), val...)
		return nil
	}
	ks.allocCell(name, kindString, append([]byte(nil), val...), nil)
	return nil
}

// Delete removes name from the keyspace, reporting whether it existed.
// Deleting a sorted-set cell clears the set before releasing its slot.
func (ks *Keyspace) Delete(name []byte) bool {
	h := ks.find(name)
	if h == NilHandle {
		return false
	}
	c := &ks.cells[h]
	ks.table.Delete(ks, c.hashCode, func(x Handle) bool { return x == h })
	if c.kind == kindSortedSet && c.zset != nil {
		c.zset.Clear()
	}
	ks.cells[h] = cellSlot{}
	ks.free = append(ks.free, h)
	return true
}

// ZSet returns the sorted set bound to name. If name doesn't exist and
// create is true, an empty set is bound and returned; otherwise a nil
// *ZSet (with nil error) reports a missing key. It returns ErrNotSortedSet
// if name already holds a string.
func (ks *Keyspace) ZSet(name []byte, create bool) (*ZSet, error) {
	h := ks.find(name)
	if h != NilHandle {
		c := &ks.cells[h]
		if c.kind != kindSortedSet {
			return nil, ErrNotSortedSet
		}
		return c.zset, nil
	}
	if !create {
		return nil, nil
	}
	zs := NewZSet()
	ks.allocCell(name, kindSortedSet, nil, zs)
	return zs, nil
}
