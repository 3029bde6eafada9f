/*
Package statsdc is a fire-and-forget client for the statsd wire
protocol, sending application metrics as UDP datagrams to a statsd
daemon.

Emissions never block the calling go-routine and never return errors.
A line is encoded and sampled by the caller and handed over a bounded
queue to a single worker go-routine which owns the socket. That keeps
metric emission cheap enough for hotpaths while datagrams still hit the
wire in submission order. When the queue runs full, emissions are
dropped and counted rather than blocked on.

	client, err := statsdc.New("statsd.example.com:8125", "myapp")
	if err != nil {
		...
	}
	client.Inc("requests", 1)
	client.Time("latency", elapsed, 0.1)
	defer client.Shutdown()

By default every emission becomes its own datagram. With
Buffering(true) lines are coalesced into datagrams of up to
Buffer(size) bytes, separated by newlines, and flushed when the next
line would not fit, when Flush is called, at the FlushInterval if one
is set, and at Shutdown. The default size 1472 fills an ethernet
frame. 1432 should be a safe size for most nets, 8932 works on jumbo
frame networks and 512 is conservative enough for commodity internet
paths.

Each emission takes a sample rate. Rates in (0,1) make the client
discard the corresponding fraction of emissions before they are
queued, and the surviving lines carry a "|@rate" suffix so the daemon
can scale the reported values back up. Rates at or above 1, and at or
below 0, emit always with no suffix.

Transport and dial problems are not surfaced on the emission calls.
They are reported to the handler set with ErrorHandler, which defaults
to logging through the "gone/statsdc" logger of github.com/One-com/gone/log.

Shutdown stops intake, waits up to DrainTimeout for submitted metrics
to be sent, flushes the packet buffer and closes the socket.
*/
package statsdc
