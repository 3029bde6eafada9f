package statsdc

import (
	"time"
)

// submission is what crosses the queue from emitting go-routines to
// the worker. Either an encoded line or an explicit flush request.
type submission struct {
	line  []byte
	flush bool
}

// run is the single worker go-routine. It owns the packet buffer and
// all socket writes, which is what puts datagrams on the wire in
// submission order. It exits when the queue has been closed and
// drained, flushing the residual buffer on the way out.
func (c *Client) run() {
	defer close(c.done)

	if c.flushEvery > 0 {
		ticker := time.NewTicker(c.flushEvery)
	LOOP:
		for {
			select {
			case sub, ok := <-c.queue:
				if !ok {
					ticker.Stop()
					break LOOP
				}
				c.consume(sub)
			case <-ticker.C:
				c.flushPacket()
			}
		}
	} else {
		// don't run a meaningless timer
		for sub := range c.queue {
			c.consume(sub)
		}
	}

	c.flushPacket()
}

// consume applies one submission to the packet buffer.
func (c *Client) consume(sub submission) {
	if sub.flush {
		c.flushPacket()
		return
	}
	line := sub.line
	if !c.pkt.fits(len(line)) {
		c.flushPacket()
		if !c.pkt.fits(len(line)) {
			// larger than the packet it self, send it alone
			if err := c.pkt.writeThrough(line); err != nil {
				c.report(err)
			}
			return
		}
	}
	c.pkt.append(line)
	if !c.buffering {
		c.flushPacket()
	}
}

func (c *Client) flushPacket() {
	if err := c.pkt.flush(); err != nil {
		c.report(err)
	}
}
