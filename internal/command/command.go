// Package command implements the server's command table: argument
// validation, the keyspace's type-guard semantics, and translation
// between zdb's Go API and the wire payload conventions.
package command

import (
	"fmt"
	"strconv"

	"zdb"
	"zdb/internal/wire"
)

// Handler executes one command against the keyspace, given its full
// argument list (args[0] is the command name).
type Handler func(ks *zdb.Keyspace, args [][]byte) wire.Response

type entry struct {
	arity int
	fn    Handler
}

// Table maps command names to their handler and exact arity (argument
// count including the command name itself).
var Table = map[string]entry{
	"get":    {2, handleGet},
	"set":    {3, handleSet},
	"del":    {2, handleDel},
	"zadd":   {4, handleZAdd},
	"zrem":   {3, handleZRem},
	"zscore": {3, handleZScore},
	"zcard":  {2, handleZCard},
	"zrange": {4, handleZRange},
}

// Dispatch validates args against the command table and runs the
// matching handler, or returns an ERR response for an unknown command or
// an arity mismatch.
func Dispatch(ks *zdb.Keyspace, args [][]byte) wire.Response {
	if len(args) == 0 {
		return errResponse("ERR empty command")
	}
	name := string(args[0])
	e, ok := Table[name]
	if !ok {
		return errResponse(fmt.Sprintf("ERR unknown command '%s'", name))
	}
	if len(args) != e.arity {
		return errResponse(fmt.Sprintf("ERR wrong number of arguments for '%s'", name))
	}
	return e.fn(ks, args)
}

func errResponse(msg string) wire.Response {
	return wire.Response{Status: wire.StatusErr, Data: []byte(msg)}
}

func typeErrResponse(err error) wire.Response {
	return errResponse("ERR " + err.Error())
}

func handleGet(ks *zdb.Keyspace, args [][]byte) wire.Response {
	val, found, err := ks.GetString(args[1])
	if err != nil {
		return typeErrResponse(err)
	}
	if !found {
		return wire.Response{Status: wire.StatusNX}
	}
	return wire.Response{Status: wire.StatusOK, Data: val}
}

func handleSet(ks *zdb.Keyspace, args [][]byte) wire.Response {
	if err := ks.SetString(args[1], args[2]); err != nil {
		return typeErrResponse(err)
	}
	return wire.Response{Status: wire.StatusOK}
}

func handleDel(ks *zdb.Keyspace, args [][]byte) wire.Response {
	if !ks.Delete(args[1]) {
		return wire.Response{Status: wire.StatusNX}
	}
	return wire.Response{Status: wire.StatusOK}
}

func handleZAdd(ks *zdb.Keyspace, args [][]byte) wire.Response {
	score, err := wire.ParseScore(args[2])
	if err != nil {
		return errResponse("ERR value is not a valid float")
	}
	zs, err := ks.ZSet(args[1], true)
	if err != nil {
		return typeErrResponse(err)
	}
	zs.Insert(args[3], score)
	return wire.Response{Status: wire.StatusOK}
}

func handleZRem(ks *zdb.Keyspace, args [][]byte) wire.Response {
	zs, err := ks.ZSet(args[1], false)
	if err != nil {
		return typeErrResponse(err)
	}
	if zs == nil {
		return wire.Response{Status: wire.StatusNX}
	}
	h := zs.Lookup(args[2])
	if h == zdb.NilHandle {
		return wire.Response{Status: wire.StatusNX}
	}
	zs.Delete(h)
	return wire.Response{Status: wire.StatusOK}
}

func handleZScore(ks *zdb.Keyspace, args [][]byte) wire.Response {
	zs, err := ks.ZSet(args[1], false)
	if err != nil {
		return typeErrResponse(err)
	}
	if zs == nil {
		return wire.Response{Status: wire.StatusNX}
	}
	h := zs.Lookup(args[2])
	if h == zdb.NilHandle {
		return wire.Response{Status: wire.StatusNX}
	}
	return wire.Response{Status: wire.StatusOK, Data: wire.FormatScore(zs.Score(h))}
}

func handleZCard(ks *zdb.Keyspace, args [][]byte) wire.Response {
	zs, err := ks.ZSet(args[1], false)
	if err != nil {
		return typeErrResponse(err)
	}
	if zs == nil {
		return wire.Response{Status: wire.StatusNX}
	}
	return wire.Response{Status: wire.StatusOK, Data: wire.EncodeU32(uint32(zs.Cardinality()))}
}

func handleZRange(ks *zdb.Keyspace, args [][]byte) wire.Response {
	lo, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return errResponse("ERR value is not an integer or out of range")
	}
	hi, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil {
		return errResponse("ERR value is not an integer or out of range")
	}
	zs, err := ks.ZSet(args[1], false)
	if err != nil {
		return typeErrResponse(err)
	}
	if zs == nil {
		return wire.Response{Status: wire.StatusNX}
	}
	handles := zs.RankRange(lo, hi)
	members := make([][]byte, len(handles))
	for i, h := range handles {
		members[i] = zs.Key(h)
	}
	return wire.Response{Status: wire.StatusOK, Data: wire.EncodeArray(members)}
}
