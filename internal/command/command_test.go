package command

import (
	"bytes"
	"testing"

	"zdb"
	"zdb/internal/wire"
)

func a(strs ...string) [][]byte {
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}

func TestStringLifecycle(t *testing.T) {
	ks := zdb.NewKeyspace()

	if resp := Dispatch(ks, a("get", "k")); resp.Status != wire.StatusNX {
		t.Log("get of missing key should be NX, got status", resp.Status)
		t.FailNow()
	}
	if resp := Dispatch(ks, a("set", "k", "v")); resp.Status != wire.StatusOK {
		t.Log("set should succeed, got status", resp.Status)
		t.FailNow()
	}
	resp := Dispatch(ks, a("get", "k"))
	if resp.Status != wire.StatusOK || !bytes.Equal(resp.Data, []byte("v")) {
		t.Log("get after set returned", resp.Status, string(resp.Data))
		t.FailNow()
	}
	if resp := Dispatch(ks, a("del", "k")); resp.Status != wire.StatusOK {
		t.Log("del of existing key should succeed")
		t.FailNow()
	}
	if resp := Dispatch(ks, a("del", "k")); resp.Status != wire.StatusNX {
		t.Log("del of already-removed key should be NX")
		t.FailNow()
	}
}

func TestTypeMismatchIsErr(t *testing.T) {
	ks := zdb.NewKeyspace()
	Dispatch(ks, a("set", "k", "v"))

	resp := Dispatch(ks, a("zadd", "k", "1", "m"))
	if resp.Status != wire.StatusErr {
		t.Log("zadd on a string key should be ERR, got", resp.Status)
		t.FailNow()
	}

	ks2 := zdb.NewKeyspace()
	Dispatch(ks2, a("zadd", "z", "1", "m"))
	resp = Dispatch(ks2, a("get", "z"))
	if resp.Status != wire.StatusErr {
		t.Log("get on a sorted-set key should be ERR, got", resp.Status)
		t.FailNow()
	}
}

func TestArityMismatchIsErr(t *testing.T) {
	ks := zdb.NewKeyspace()
	if resp := Dispatch(ks, a("set", "onlyonearg")); resp.Status != wire.StatusErr {
		t.Log("wrong arity should be ERR, got", resp.Status)
		t.FailNow()
	}
	if resp := Dispatch(ks, a("nosuchcommand", "x")); resp.Status != wire.StatusErr {
		t.Log("unknown command should be ERR, got", resp.Status)
		t.FailNow()
	}
}

func TestSortedSetLifecycle(t *testing.T) {
	ks := zdb.NewKeyspace()

	Dispatch(ks, a("zadd", "z", "3.5", "alice"))
	Dispatch(ks, a("zadd", "z", "1.0", "bob"))
	Dispatch(ks, a("zadd", "z", "2.0", "carol"))

	resp := Dispatch(ks, a("zcard", "z"))
	if resp.Status != wire.StatusOK || len(resp.Data) != 4 {
		t.Log("zcard returned unexpected payload")
		t.FailNow()
	}

	resp = Dispatch(ks, a("zscore", "z", "alice"))
	if resp.Status != wire.StatusOK {
		t.Log("zscore for existing member should be OK")
		t.FailNow()
	}
	score, err := wire.ParseScore(resp.Data)
	if err != nil || score != 3.5 {
		t.Log("zscore payload decoded to", score, err)
		t.FailNow()
	}

	resp = Dispatch(ks, a("zscore", "z", "dave"))
	if resp.Status != wire.StatusNX {
		t.Log("zscore for missing member should be NX")
		t.FailNow()
	}

	resp = Dispatch(ks, a("zrange", "z", "0", "-1"))
	if resp.Status != wire.StatusOK {
		t.Log("zrange should be OK")
		t.FailNow()
	}
	elems, ok := wire.DecodeMulti(resp.Data)
	if !ok || len(elems) != 3 {
		t.Log("zrange expected 3 members, decode ok:", ok)
		t.FailNow()
	}
	order := []string{"bob", "carol", "alice"}
	for i, want := range order {
		if string(elems[i]) != want {
			t.Log("position", i, "got", string(elems[i]), "expected", want)
			t.FailNow()
		}
	}

	if resp := Dispatch(ks, a("zrem", "z", "bob")); resp.Status != wire.StatusOK {
		t.Log("zrem of existing member should succeed")
		t.FailNow()
	}
	if resp := Dispatch(ks, a("zrem", "z", "bob")); resp.Status != wire.StatusNX {
		t.Log("zrem of already-removed member should be NX")
		t.FailNow()
	}
}

func TestZRangeOnMissingKeyIsNX(t *testing.T) {
	ks := zdb.NewKeyspace()
	if resp := Dispatch(ks, a("zrange", "nosuchset", "0", "-1")); resp.Status != wire.StatusNX {
		t.Log("zrange on a missing key should be NX, got", resp.Status)
		t.FailNow()
	}
}
