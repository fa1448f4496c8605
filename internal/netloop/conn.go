package netloop

// connState replaces three independent read/write/close booleans with a
// single explicit state: a connection is always waiting to read data,
// waiting to drain buffered output, or on its way out. Collapsing the
// three flags this way rules out the nonsensical combinations (e.g.
// simultaneously wanting to read and close) that independent booleans
// would otherwise allow.
type connState uint8

const (
	stateReading connState = iota
	stateWriting
	stateClosing
)

const initialBufCap = 1024

// peer is one accepted connection's non-blocking I/O state: double-ended
// byte buffers that grow by doubling, and the readiness state the poll
// loop uses to decide which events to ask for.
type peer struct {
	fd    int
	state connState

	in     []byte
	inUsed int

	out     []byte
	outUsed int
}

func newPeer(fd int) *peer {
	return &peer{
		fd:    fd,
		state: stateReading,
		in:    make([]byte, initialBufCap),
		out:   make([]byte, initialBufCap),
	}
}

// appendOut grows the outgoing buffer (doubling, as needed) and queues
// data for the next write.
func (p *peer) appendOut(data []byte) {
	need := p.outUsed + len(data)
	if need > len(p.out) {
		newLen := len(p.out)
		if newLen == 0 {
			newLen = initialBufCap
		}
		for newLen < need {
			newLen *= 2
		}
		grown := make([]byte, newLen)
		copy(grown, p.out[:p.outUsed])
		p.out = grown
	}
	copy(p.out[p.outUsed:], data)
	p.outUsed += len(data)
}

// growIn doubles the incoming buffer once it's completely full, giving
// the next read somewhere to land.
func (p *peer) growIn() {
	if p.inUsed != len(p.in) {
		return
	}
	grown := make([]byte, len(p.in)*2)
	copy(grown, p.in)
	p.in = grown
}

// consumeIn shifts consumed bytes out of the front of the incoming
// buffer.
func (p *peer) consumeIn(n int) {
	copy(p.in, p.in[n:p.inUsed])
	p.inUsed -= n
}

// consumeOut shifts written bytes out of the front of the outgoing
// buffer.
func (p *peer) consumeOut(n int) {
	copy(p.out, p.out[n:p.outUsed])
	p.outUsed -= n
}
