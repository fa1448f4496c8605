package zdb

// Handle is an arena index into the backing slice of a Keyspace or ZSet.
// Both the chained hash index (hashtable.go) and the order-statistic tree
// (avltree.go) address entries by Handle rather than by pointer: the tree
// and the hash index for a given structure share the same arena, so a
// member's hash linkage and tree linkage never need a back-cast between
// the two, unlike the intrusive-pointer design of the reference source.
type Handle int32

// NilHandle is the zero value for "no entry", analogous to a nil pointer.
// Arena index 0 is a valid handle, so the nil sentinel must not be 0.
const NilHandle Handle = -1
