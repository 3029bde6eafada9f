package statsdc

import (
	"errors"
	"io"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/One-com/gone/log"
)

// The logger used for default error reporting. Applications can
// configure it with log.GetLogger("gone/statsdc").
var statsdLog = log.GetLogger("gone/statsdc")

var (
	// ErrClosed is returned by Shutdown on a client which has already
	// been shut down.
	ErrClosed = errors.New("Client already shut down")

	// ErrDrainTimeout is returned by Shutdown when submitted metrics
	// could not be drained to the wire within the drain timeout.
	ErrDrainTimeout = errors.New("Timeout draining pending metrics")

	errNoDestination = errors.New("No destination - provide an address or an Output writer")
)

// Client is a fire-and-forget statsd emitter. Emissions are encoded on
// the calling go-routine, sampled, and handed to a single worker
// go-routine owning the socket, so no emission ever blocks on network
// I/O and datagrams hit the wire in submission order.
type Client struct {
	prefix string

	out  io.Writer // destination, a dialed UDPConn unless Output was used
	conn net.Conn  // set when New dialed it, closed by Shutdown

	buffering  bool
	psize      int
	backlog    int
	flushEvery time.Duration
	drain      time.Duration
	dialTo     time.Duration

	rmu    sync.Mutex
	random func() float64

	handler func(error)

	pkt *packet

	// mu serializes Shutdown against submitters so no send can hit a
	// closed queue.
	mu      sync.RWMutex
	closed  bool
	queue   chan submission
	done    chan struct{}
	dropped uint64
}

// New creates a Client emitting metrics to the UDP address addr in
// host:port form. All metric keys are prepended with "prefix." unless
// prefix is empty. The worker go-routine is started before New
// returns.
//
// The default client sends one datagram per emission. Pass
// Buffering(true) to coalesce lines into datagrams of up to
// Buffer(size) bytes.
func New(addr, prefix string, opts ...Option) (c *Client, err error) {

	c = &Client{
		psize:   DefaultPacketSize,
		backlog: DefaultBacklog,
		drain:   DefaultDrainTimeout,
		dialTo:  DefaultDialTimeout,
		handler: logErrors,
	}
	if prefix != "" {
		c.prefix = prefix + "."
	}

	for _, o := range opts {
		err = o(c)
		if err != nil {
			return nil, err
		}
	}

	if c.out == nil {
		if addr == "" {
			return nil, errNoDestination
		}
		conn, err := net.DialTimeout("udp", addr, c.dialTo)
		if err != nil {
			return nil, err
		}
		c.conn = conn
		c.out = conn
	}

	if c.random == nil {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		c.random = r.Float64
	}

	c.pkt = newPacket(c.out, c.psize)
	c.queue = make(chan submission, c.backlog)
	c.done = make(chan struct{})

	go c.run()

	return c, nil
}

func logErrors(err error) {
	statsdLog.ERROR(err.Error())
}

// Count adjusts the counter key by delta. rate is the client side
// sample rate, 1 emits always.
func (c *Client) Count(key string, delta int64, rate float64) {
	if !c.sampled(rate) {
		return
	}
	line := c.newLine(key)
	line = strconv.AppendInt(line, delta, 10)
	line = appendTail(line, markCounter, rate)
	c.submit(line)
}

// Inc is Count with a delta of 1.
func (c *Client) Inc(key string, rate float64) {
	c.Count(key, 1, rate)
}

// Dec is Count with a delta of -1.
func (c *Client) Dec(key string, rate float64) {
	c.Count(key, -1, rate)
}

// Time records a timer value for key. The duration is truncated to
// whole milliseconds on the wire.
func (c *Client) Time(key string, d time.Duration, rate float64) {
	if !c.sampled(rate) {
		return
	}
	val := d.Nanoseconds() / int64(1000000)
	line := c.newLine(key)
	line = strconv.AppendInt(line, val, 10)
	line = appendTail(line, markTimer, rate)
	c.submit(line)
}

// Gauge sets the gauge key to value, formatted with exactly 3
// fractional digits.
func (c *Client) Gauge(key string, value float64, rate float64) {
	if !c.sampled(rate) {
		return
	}
	line := c.newLine(key)
	line = appendGauge(line, value)
	line = appendTail(line, markGauge, rate)
	c.submit(line)
}

// Set records member as an occurrence in the set key.
func (c *Client) Set(key string, member string, rate float64) {
	if !c.sampled(rate) {
		return
	}
	line := c.newLine(key)
	line = append(line, member...)
	line = appendTail(line, markSet, rate)
	c.submit(line)
}

// Flush asks the worker to send whatever sits in the packet buffer.
// The request is ordered with respect to earlier emissions and like
// them dropped if the backlog is full.
func (c *Client) Flush() {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		atomic.AddUint64(&c.dropped, 1)
		return
	}
	select {
	case c.queue <- submission{flush: true}:
	default:
		atomic.AddUint64(&c.dropped, 1)
	}
	c.mu.RUnlock()
}

// Dropped returns the number of emissions discarded because the
// backlog was full or the client was shut down.
func (c *Client) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

// Shutdown stops intake and waits up to the drain timeout for the
// worker to put already submitted metrics on the wire. The residual
// packet buffer is flushed before the socket is closed. All steps are
// attempted even if one fails. Each failure is reported through the
// error handler and the first is returned.
//
// Emissions after Shutdown are silently dropped. A second Shutdown
// returns ErrClosed.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	var first error

	select {
	case <-c.done:
	case <-time.After(c.drain):
		first = ErrDrainTimeout
		c.report(ErrDrainTimeout)
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			if first == nil {
				first = err
			}
			c.report(err)
		}
	}

	if n := atomic.LoadUint64(&c.dropped); n > 0 {
		statsdLog.WARN("Client dropped metric events", "dropped", n)
	}

	return first
}

// newLine starts a line buffer holding "<prefix><key>:".
func (c *Client) newLine(key string) []byte {
	buf := make([]byte, 0, len(c.prefix)+len(key)+32)
	return appendHead(buf, c.prefix, key)
}

// sampled decides on the calling go-routine whether this emission
// survives sampling. Rates at or above 1 and at or below 0 always
// emit.
func (c *Client) sampled(rate float64) bool {
	if rate >= 1 || rate <= 0 {
		return true
	}
	c.rmu.Lock()
	v := c.random()
	c.rmu.Unlock()
	return v <= rate
}

// submit hands an encoded line to the worker without ever blocking.
// Lines are dropped and counted when the queue is full or the client
// is closed.
func (c *Client) submit(line []byte) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		atomic.AddUint64(&c.dropped, 1)
		return
	}
	select {
	case c.queue <- submission{line: line}:
	default:
		atomic.AddUint64(&c.dropped, 1)
	}
	c.mu.RUnlock()
}

func (c *Client) report(err error) {
	if c.handler != nil {
		c.handler(err)
	}
}
