// Implements the Pipe, the message buffer on a single parent-child edge.

package sim

import "slices"

// LoveToken is the sentinel value exchanged over pipes to signal conversion.
const LoveToken = 831

// Pipe is an unbounded, non-blocking buffer of signal tokens on the edge
// between a parent (Owner) and one of its children (Peer).
// Both ends of the edge read and write the same Pipe.
type Pipe struct {
	Owner int // pid of the parent that owns the pipe
	Peer  int // pid of the child on the other end

	buf []int
}

// NewPipe returns an empty pipe for the owner -> peer edge.
func NewPipe(owner, peer int) *Pipe {
	return &Pipe{Owner: owner, Peer: peer}
}

// Write appends a token to the buffer.
func (p *Pipe) Write(token int) {
	p.buf = append(p.buf, token)
}

// Read returns every buffered token and empties the buffer.
// A second Read with no intervening Write returns an empty slice.
func (p *Pipe) Read() []int {
	if len(p.buf) == 0 {
		return nil
	}
	msgs := p.buf
	p.buf = nil
	return msgs
}

// Contains reports whether token is currently buffered, without draining.
func (p *Pipe) Contains(token int) bool {
	return slices.Contains(p.buf, token)
}

// Len returns the number of buffered tokens.
func (p *Pipe) Len() int {
	return len(p.buf)
}

// Pending returns a copy of the buffered tokens.
func (p *Pipe) Pending() []int {
	return slices.Clone(p.buf)
}

// Clone returns an independent copy with the same identity and buffer.
func (p *Pipe) Clone() *Pipe {
	return &Pipe{Owner: p.Owner, Peer: p.Peer, buf: slices.Clone(p.buf)}
}
