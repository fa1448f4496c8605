// Command zdb-client is a line-oriented demo client: each line of stdin
// is split into whitespace-separated arguments, sent as one request, and
// its response printed.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"zdb/internal/wire"
)

func main() {
	addr := "127.0.0.1:1234"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Fatalln("dial:", err.Error())
	}
	defer conn.Close()

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		args := make([][]byte, len(fields))
		for i, f := range fields {
			args[i] = []byte(f)
		}

		if _, err := conn.Write(wire.EncodeRequest(args)); err != nil {
			log.Println("write:", err.Error())
			continue
		}
		resp, err := wire.ReadResponse(conn)
		if err != nil {
			log.Println("read:", err.Error())
			continue
		}
		printResponse(resp)
	}
}

// printResponse mirrors the reference client's display heuristic: a
// response is shown as a multi-element array if it re-parses as one with
// exact length coverage, else as a raw uint32 if it's exactly 4
// non-printable bytes, else as ASCII text.
func printResponse(resp wire.Response) {
	fmt.Printf("server says: [%d]", resp.Status)
	if elems, ok := wire.DecodeMulti(resp.Data); ok {
		for _, e := range elems {
			fmt.Printf(" %s", e)
		}
		fmt.Println()
		return
	}
	switch {
	case len(resp.Data) == 4 && !isPrintableASCII(resp.Data):
		fmt.Printf(" %d\n", binary.BigEndian.Uint32(resp.Data))
	case len(resp.Data) > 0:
		fmt.Printf(" %s\n", resp.Data)
	default:
		fmt.Println()
	}
}

func isPrintableASCII(data []byte) bool {
	for _, b := range data {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
