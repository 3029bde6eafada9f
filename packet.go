package statsdc

import (
	"io"
)

// packet is the reusable datagram assembly buffer. Lines are appended
// separated by '\n' until the configured max payload size would be
// exceeded, then the whole content is written to out as one datagram
// and the buffer starts over. The buffer is allocated once and reused
// for the lifetime of the client.
//
// Only the worker go-routine touches a packet, so it does no locking
// it self.
type packet struct {
	out io.Writer
	max int
	buf []byte
}

func newPacket(out io.Writer, max int) *packet {
	return &packet{out: out, max: max, buf: make([]byte, 0, max)}
}

// fits reports whether a line of n bytes can be appended without
// growing the datagram beyond max. One byte is reserved for the
// separator.
func (p *packet) fits(n int) bool {
	return p.max-len(p.buf) >= n+1
}

// append adds one formatted line to the packet, separated from any
// previous line. The caller must have checked fits first.
func (p *packet) append(line []byte) {
	if len(p.buf) > 0 {
		p.buf = append(p.buf, '\n')
	}
	p.buf = append(p.buf, line...)
}

// flush writes the assembled packet as a single datagram and resets
// the buffer. The content is gone even if the write fails, delivery
// is best effort.
func (p *packet) flush() error {
	if len(p.buf) == 0 {
		return nil
	}
	_, err := p.out.Write(p.buf)
	p.buf = p.buf[:0]
	return err
}

// writeThrough sends a single line as its own datagram, bypassing the
// buffer. Used for lines too large to ever fit the packet.
func (p *packet) writeThrough(line []byte) error {
	_, err := p.out.Write(line)
	return err
}

/* The buffering approach here has been borrowed from github.com/alexcesaro/statsd

... which carries the license:

The MIT License (MIT)

Copyright (c) 2015 Alexandre Cesaro

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
the Software, and to permit persons to whom the Software is furnished to do so,
subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/
