package zdb

import (
	"bytes"
	"fmt"
	"testing"
)

func TestZSetInsertLookupRoundTrip(t *testing.T) {
	zs := NewZSet()
	zs.Insert([]byte("alice"), 1.5)
	zs.Insert([]byte("bob"), 2.5)

	h := zs.Lookup([]byte("alice"))
	if h == NilHandle {
		t.Log("lookup for alice failed")
		t.FailNow()
	}
	if zs.Score(h) != 1.5 {
		t.Log("score", zs.Score(h), "expected 1.5")
		t.FailNow()
	}
	if !bytes.Equal(zs.Key(h), []byte("alice")) {
		t.Log("key", string(zs.Key(h)), "expected alice")
		t.FailNow()
	}

	if zs.Lookup([]byte("carol")) != NilHandle {
		t.Log("lookup for missing member should fail")
		t.FailNow()
	}
}

func TestZSetReinsertUpdatesScoreAndOrder(t *testing.T) {
	zs := NewZSet()
	zs.Insert([]byte("x"), 10)
	zs.Insert([]byte("y"), 20)
	zs.Insert([]byte("x"), 5)

	if zs.Cardinality() != 2 {
		t.Log("cardinality", zs.Cardinality(), "expected 2")
		t.FailNow()
	}
	h := zs.Lookup([]byte("x"))
	if zs.Score(h) != 5 {
		t.Log("score after reinsert", zs.Score(h), "expected 5")
		t.FailNow()
	}

	handles := zs.RankRange(0, -1)
	if len(handles) != 2 || !bytes.Equal(zs.Key(handles[0]), []byte("x")) {
		t.Log("expected x to rank first after score update")
		t.FailNow()
	}
}

func TestZSetRankRangeOrderingAndClamping(t *testing.T) {
	zs := NewZSet()
	members := []struct {
		key   string
		score float64
	}{
		{"e", 5}, {"a", 1}, {"c", 3}, {"b", 2}, {"d", 4},
	}
	for _, m := range members {
		zs.Insert([]byte(m.key), m.score)
	}

	all := zs.RankRange(0, -1)
	want := []string{"a", "b", "c", "d", "e"}
	if len(all) != len(want) {
		t.Log("range length", len(all), "expected", len(want))
		t.FailNow()
	}
	for i, h := range all {
		if string(zs.Key(h)) != want[i] {
			t.Log("position", i, "got", string(zs.Key(h)), "expected", want[i])
			t.FailNow()
		}
	}

	// negative indices count from the end.
	last2 := zs.RankRange(-2, -1)
	if len(last2) != 2 || string(zs.Key(last2[0])) != "d" || string(zs.Key(last2[1])) != "e" {
		t.Log("last-2 range incorrect")
		t.FailNow()
	}

	// out-of-range bounds clamp rather than error.
	clamped := zs.RankRange(-100, 100)
	if len(clamped) != 5 {
		t.Log("clamped range length", len(clamped), "expected 5")
		t.FailNow()
	}

	// an inverted range after clamping yields nothing.
	empty := zs.RankRange(10, 20)
	if len(empty) != 0 {
		t.Log("expected empty range beyond cardinality")
		t.FailNow()
	}
}

func TestZSetSeekGE(t *testing.T) {
	zs := NewZSet()
	zs.Insert([]byte("a"), 1)
	zs.Insert([]byte("b"), 3)
	zs.Insert([]byte("c"), 5)

	h := zs.SeekGE(2, nil)
	if h == NilHandle || string(zs.Key(h)) != "b" {
		t.Log("seekGE(2) expected b")
		t.FailNow()
	}

	h = zs.SeekGE(5, []byte("c"))
	if h == NilHandle || string(zs.Key(h)) != "c" {
		t.Log("seekGE(5, c) expected exact match c")
		t.FailNow()
	}

	if zs.SeekGE(100, nil) != NilHandle {
		t.Log("seekGE past every score should find nothing")
		t.FailNow()
	}
}

func TestZSetClear(t *testing.T) {
	zs := NewZSet()
	for i := 0; i < 50; i++ {
		zs.Insert([]byte(fmt.Sprintf("m%d", i)), float64(i))
	}
	zs.Clear()
	if zs.Cardinality() != 0 || zs.root != NilHandle {
		t.Log("zset not empty after Clear")
		t.FailNow()
	}
	zs.Insert([]byte("fresh"), 1)
	if zs.Cardinality() != 1 {
		t.Log("zset unusable after Clear")
		t.FailNow()
	}
}
