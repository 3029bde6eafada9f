package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/One-com/gone/log"
	"github.com/One-com/gone/log/syslog"
	"github.com/One-com/gone/statsdc"
	flag "github.com/spf13/pflag"
)

// boundary makes datagram borders visible when dumping to stdout.
type boundary struct {
	mu  sync.Mutex
	out io.Writer
}

func (b *boundary) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	n, err = b.out.Write(p)
	b.out.Write([]byte("\n-----------\n"))
	b.mu.Unlock()
	return
}

var (
	addr       = flag.StringP("addr", "a", "127.0.0.1:8125", "statsd UDP address")
	prefix     = flag.StringP("prefix", "p", "loadtest", "metric name prefix")
	buffering  = flag.BoolP("buffering", "b", false, "coalesce lines into shared datagrams")
	size       = flag.IntP("size", "s", statsdc.DefaultPacketSize, "max datagram payload bytes")
	rate       = flag.Float64P("rate", "r", 1, "sample rate")
	rounds     = flag.IntP("rounds", "n", 100, "rounds of metrics to emit")
	pace       = flag.DurationP("pace", "i", 10*time.Millisecond, "sleep between rounds")
	flushEvery = flag.DurationP("flush", "f", 0, "periodic flush interval, 0 disables")
	stdout     = flag.Bool("stdout", false, "dump datagrams to stdout instead of sending UDP")
	debug      = flag.BoolP("debug", "d", false, "debug logging")
)

func main() {
	flag.Parse()

	if *debug {
		log.SetLevel(syslog.LOG_DEBUG)
	}

	opts := []statsdc.Option{
		statsdc.Buffering(*buffering),
		statsdc.Buffer(*size),
		statsdc.FlushInterval(*flushEvery),
	}
	if *stdout {
		opts = append(opts, statsdc.Output(&boundary{out: os.Stdout}))
	}

	client, err := statsdc.New(*addr, *prefix, opts...)
	if err != nil {
		log.Fatal(err)
	}

	log.INFO("emitting", "rounds", *rounds, "rate", *rate, "addr", *addr)

	start := time.Now()
	for g := *rounds; g != 0; g-- {
		client.Inc("rounds", *rate)
		client.Count("bytes", int64(g)*10, *rate)
		client.Time("roundtrip", time.Duration(g)*time.Millisecond, *rate)
		client.Gauge("level", float64(g)/2, *rate)
		client.Set("uniques", fmt.Sprintf("u%d", g%10), *rate)

		if *pace > 0 {
			time.Sleep(*pace)
		}
	}

	if err := client.Shutdown(); err != nil {
		log.ERROR("shutdown", "error", err.Error())
	}
	log.INFO("done", "elapsed", time.Since(start).String(), "dropped", client.Dropped())
}
