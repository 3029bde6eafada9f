package statsdc

import (
	"errors"
	"io"
	"time"
)

// Defaults used by New when no option overrides them.
const (
	// DefaultPacketSize fits an ethernet MTU without fragmenting.
	DefaultPacketSize = 1472

	// DefaultBacklog is the submission queue capacity.
	DefaultBacklog = 1024

	// DefaultDrainTimeout bounds how long Shutdown waits for queued
	// metrics to reach the wire.
	DefaultDrainTimeout = 30 * time.Second

	// DefaultDialTimeout bounds the UDP dial done by New.
	DefaultDialTimeout = time.Second
)

var (
	errPacketSize = errors.New("Packet size must be at least 1 byte")
	errBacklog    = errors.New("Backlog must be at least 1")
	errNegative   = errors.New("Duration must not be negative")
	errNilSource  = errors.New("Nil sample source")
)

// Option is a configuration function for a Client, applied by New in
// the order given. The first Option returning an error aborts
// construction.
type Option func(*Client) error

// Buffering controls whether lines are coalesced into shared datagrams
// (true) or every emission is sent as its own datagram (false, the
// default).
func Buffering(on bool) Option {
	return Option(func(c *Client) error {
		c.buffering = on
		return nil
	})
}

// Buffer sets the package size with which writes to the underlying
// io.Writer (often an UDPConn) is done. The default 1472 fills an
// ethernet frame. Use 1432 to be safe on most intranets, 8932 on
// networks with jumbo frames, and 512 when the path crosses commodity
// internet.
func Buffer(size int) Option {
	return Option(func(c *Client) error {
		if size < 1 {
			return errPacketSize
		}
		c.psize = size
		return nil
	})
}

// Backlog sets the capacity of the submission queue between the
// emitting go-routines and the sending worker. When the queue is full
// further emissions are dropped and counted, never blocked on.
func Backlog(n int) Option {
	return Option(func(c *Client) error {
		if n < 1 {
			return errBacklog
		}
		c.backlog = n
		return nil
	})
}

// FlushInterval makes the worker flush the packet buffer every d even
// if it is not full. Zero (the default) disables the timer so a
// buffering client only flushes on overflow, explicit Flush or
// Shutdown.
func FlushInterval(d time.Duration) Option {
	return Option(func(c *Client) error {
		if d < 0 {
			return errNegative
		}
		c.flushEvery = d
		return nil
	})
}

// DrainTimeout bounds how long Shutdown waits for the worker to drain
// already submitted metrics before closing the socket anyway.
func DrainTimeout(d time.Duration) Option {
	return Option(func(c *Client) error {
		if d < 0 {
			return errNegative
		}
		c.drain = d
		return nil
	})
}

// DialTimeout bounds the UDP dial New performs when no Output writer
// is given.
func DialTimeout(d time.Duration) Option {
	return Option(func(c *Client) error {
		if d < 0 {
			return errNegative
		}
		c.dialTo = d
		return nil
	})
}

// Output sets an general io.Writer as destination instead of dialing
// the address given to New. Shutdown will not close it.
func Output(w io.Writer) Option {
	return Option(func(c *Client) error {
		c.out = w
		return nil
	})
}

// SampleSource replaces the random source consulted by sampled
// emissions. f must return values uniformly distributed in [0,1).
// The client serializes calls to f.
func SampleSource(f func() float64) Option {
	return Option(func(c *Client) error {
		if f == nil {
			return errNilSource
		}
		c.random = f
		return nil
	})
}

// ErrorHandler replaces the default error reporting, which logs to the
// "gone/statsdc" logger. A nil handler discards errors.
func ErrorHandler(h func(error)) Option {
	return Option(func(c *Client) error {
		c.handler = h
		return nil
	})
}
