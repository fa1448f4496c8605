// Package wire implements the server's length-prefixed request/response
// framing and the payload conventions layered on top of it (scalar
// strings, raw uint32s, ASCII-formatted floats, and count-prefixed
// arrays).
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"
)

// Limits on a single request frame. A frame exceeding either is a framing
// error: the connection is closed without a response.
const (
	MaxMsg  = 32 << 20
	MaxArgs = 200000
)

// Response status codes.
const (
	StatusOK  uint32 = 0
	StatusErr uint32 = 1
	StatusNX  uint32 = 2
)

// Response is a decoded reply: a status code plus an opaque payload whose
// interpretation (scalar string, raw uint32, formatted float, or
// count-prefixed array) depends on which command produced it.
type Response struct {
	Status uint32
	Data   []byte
}

// ParseRequest attempts to decode one complete request frame from the
// front of buf, enforcing maxMsg and maxArgs as the frame's size and
// argument-count ceilings (callers pass the deployment's configured
// limits; MaxMsg/MaxArgs are the defaults such a caller starts from). ok
// is false if buf doesn't yet hold a full frame; err is non-nil only for
// a malformed frame, in which case the caller must close the connection
// rather than reply. On success, consumed is the number of leading bytes
// of buf the frame occupied, and the returned args alias buf directly, so
// callers must copy anything they need to retain past the next mutation
// of buf.
func ParseRequest(buf []byte, maxMsg, maxArgs uint32) (args [][]byte, consumed int, ok bool, err error) {
	if len(buf) < 4 {
		return nil, 0, false, nil
	}
	totalLen := binary.BigEndian.Uint32(buf[:4])
	if totalLen > maxMsg {
		return nil, 0, false, errors.New("frame exceeds max message size")
	}
	if len(buf) < 4+int(totalLen) {
		return nil, 0, false, nil
	}
	payload := buf[4 : 4+totalLen]
	if len(payload) < 4 {
		return nil, 0, false, errors.New("truncated argument count")
	}
	argCount := binary.BigEndian.Uint32(payload[:4])
	if argCount > maxArgs {
		return nil, 0, false, errors.New("argument count exceeds limit")
	}
	cur := payload[4:]
	out := make([][]byte, 0, argCount)
	for i := uint32(0); i < argCount; i++ {
		if len(cur) < 4 {
			return nil, 0, false, errors.New("truncated argument length")
		}
		alen := binary.BigEndian.Uint32(cur[:4])
		cur = cur[4:]
		if uint32(len(cur)) < alen {
			return nil, 0, false, errors.New("truncated argument data")
		}
		out = append(out, cur[:alen])
		cur = cur[alen:]
	}
	if len(cur) != 0 {
		return nil, 0, false, errors.New("trailing bytes after arguments")
	}
	return out, 4 + int(totalLen), true, nil
}

// EncodeResponse serializes resp as a response frame.
func EncodeResponse(resp Response) []byte {
	out := make([]byte, 12, 12+len(resp.Data))
	binary.BigEndian.PutUint32(out[0:4], uint32(8+len(resp.Data)))
	binary.BigEndian.PutUint32(out[4:8], resp.Status)
	binary.BigEndian.PutUint32(out[8:12], uint32(len(resp.Data)))
	return append(out, resp.Data...)
}

// EncodeRequest serializes args as a request frame.
func EncodeRequest(args [][]byte) []byte {
	size := 4
	for _, a := range args {
		size += 4 + len(a)
	}
	out := make([]byte, 4, 4+size)
	binary.BigEndian.PutUint32(out[0:4], uint32(size))

	var cnt [4]byte
	binary.BigEndian.PutUint32(cnt[:], uint32(len(args)))
	out = append(out, cnt[:]...)
	for _, a := range args {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(a)))
		out = append(out, l[:]...)
		out = append(out, a...)
	}
	return out
}

// ReadResponse reads one response frame from r, blocking until a full
// frame (or an error) arrives.
func ReadResponse(r io.Reader) (Response, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Response{}, err
	}
	totalLen := binary.BigEndian.Uint32(hdr[:])
	if totalLen < 8 {
		return Response{}, errors.New("response shorter than header")
	}
	body := make([]byte, totalLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Response{}, err
	}
	status := binary.BigEndian.Uint32(body[0:4])
	dataLen := binary.BigEndian.Uint32(body[4:8])
	if 8+dataLen != totalLen {
		return Response{}, errors.New("inconsistent data length")
	}
	return Response{Status: status, Data: body[8 : 8+dataLen]}, nil
}

// EncodeArray encodes elements as a count-prefixed array payload, the
// convention used for multi-element responses such as ZRANGE.
func EncodeArray(elements [][]byte) []byte {
	size := 4
	for _, e := range elements {
		size += 4 + len(e)
	}
	out := make([]byte, 4, size)
	binary.BigEndian.PutUint32(out[0:4], uint32(len(elements)))
	for _, e := range elements {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(e)))
		out = append(out, l[:]...)
		out = append(out, e...)
	}
	return out
}

// DecodeMulti attempts to parse data as a count-prefixed array, reporting
// ok only if doing so accounts for every byte of data exactly. This is
// the same re-parse-and-check-coverage heuristic the reference client
// uses to tell a multi-element payload apart from a scalar one, since the
// wire format carries no explicit type tag; callers relying on it should
// be aware that a coincidentally array-shaped scalar (for instance a
// four-byte cardinality that happens to read back as "zero elements")
// will be misdetected, exactly as in the original client.
func DecodeMulti(data []byte) (elements [][]byte, ok bool) {
	if len(data) < 4 {
		return nil, false
	}
	count := binary.BigEndian.Uint32(data[:4])
	cur := data[4:]
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(cur) < 4 {
			return nil, false
		}
		elen := binary.BigEndian.Uint32(cur[:4])
		cur = cur[4:]
		if uint32(len(cur)) < elen {
			return nil, false
		}
		out = append(out, cur[:elen])
		cur = cur[elen:]
	}
	if len(cur) != 0 {
		return nil, false
	}
	return out, true
}

// EncodeU32 encodes v as a 4-byte big-endian scalar payload.
func EncodeU32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// FormatScore formats a zset score to 17 significant digits, enough to
// round-trip any float64 exactly.
func FormatScore(score float64) []byte {
	return strconv.AppendFloat(nil, score, 'g', 17, 64)
}

// ParseScore parses a formatted score back into a float64.
func ParseScore(raw []byte) (float64, error) {
	return strconv.ParseFloat(string(raw), 64)
}
