package zdb

// valueKind tags a keyspace cell's payload. Each cell is a sum type: a
// string value XOR a sorted set, fixed at creation time, never both.
type valueKind uint8

const (
	kindString valueKind = iota
	kindSortedSet
)
