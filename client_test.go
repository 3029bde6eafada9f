package statsdc_test

import (
	"errors"
	"io/ioutil"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/One-com/gone/statsdc"
	"github.com/stretchr/testify/assert"
)

// recorder keeps every datagram written to it, so tests can assert on
// exact datagram boundaries where a bytes.Buffer would run them
// together.
type recorder struct {
	mu   sync.Mutex
	data []string
}

func (r *recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	r.data = append(r.data, string(p))
	r.mu.Unlock()
	return len(p), nil
}

func (r *recorder) datagrams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.data...)
}

// blockedWriter parks the worker inside Write until released. entered
// is closed when the first Write call has started.
type blockedWriter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockedWriter() *blockedWriter {
	return &blockedWriter{entered: make(chan struct{}), release: make(chan struct{})}
}

func (w *blockedWriter) Write(p []byte) (int, error) {
	w.once.Do(func() { close(w.entered) })
	<-w.release
	return len(p), nil
}

type errWriter struct {
	err error
}

func (w errWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func TestUnbufferedSingleDatagram(t *testing.T) {

	rec := &recorder{}
	c, err := statsdc.New("", "app", statsdc.Output(rec))
	if err != nil {
		t.Fatal(err)
	}

	c.Inc("hits", 1)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	got := rec.datagrams()
	if len(got) != 1 || got[0] != "app.hits:1|c" {
		t.Errorf("Wrong datagrams %q", got)
	}
}

func TestUnbufferedDatagramPerEmission(t *testing.T) {

	rec := &recorder{}
	c, err := statsdc.New("", "app", statsdc.Output(rec))
	if err != nil {
		t.Fatal(err)
	}

	c.Inc("a", 1)
	c.Dec("a", 1)
	c.Count("a", 42, 1)
	c.Time("t", 1500*time.Millisecond, 1)
	c.Gauge("g", 3.5, 1)
	c.Set("s", "member", 1)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"app.a:1|c",
		"app.a:-1|c",
		"app.a:42|c",
		"app.t:1500|ms",
		"app.g:3.500|g",
		"app.s:member|s",
	}
	got := rec.datagrams()
	if len(got) != len(want) {
		t.Fatalf("Wrong datagrams %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Wrong datagram %d: %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestBufferedCoalescing(t *testing.T) {

	rec := &recorder{}
	c, err := statsdc.New("", "app", statsdc.Output(rec), statsdc.Buffering(true))
	if err != nil {
		t.Fatal(err)
	}

	c.Count("a", 1, 1)
	c.Count("b", 2, 1)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	got := rec.datagrams()
	if len(got) != 1 || got[0] != "app.a:1|c\napp.b:2|c" {
		t.Errorf("Wrong datagrams %q", got)
	}
}

func TestBufferedOverflowFlushesFirst(t *testing.T) {

	rec := &recorder{}
	c, err := statsdc.New("", "",
		statsdc.Output(rec),
		statsdc.Buffering(true),
		statsdc.Buffer(12))
	if err != nil {
		t.Fatal(err)
	}

	// Two lines of 5 bytes fill 11 of the 12 byte packet. The third
	// must push out the first two and start a new packet.
	c.Count("a", 1, 1)
	c.Count("b", 2, 1)
	c.Count("c", 3, 1)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	want := []string{"a:1|c\nb:2|c", "c:3|c"}
	got := rec.datagrams()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Wrong datagrams %q, expected %q", got, want)
	}
}

func TestOversizedLineSentAlone(t *testing.T) {

	rec := &recorder{}
	c, err := statsdc.New("", "",
		statsdc.Output(rec),
		statsdc.Buffering(true),
		statsdc.Buffer(12))
	if err != nil {
		t.Fatal(err)
	}

	member := strings.Repeat("x", 20)

	c.Count("a", 1, 1)
	c.Set("big", member, 1)
	c.Count("b", 2, 1)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	want := []string{"a:1|c", "big:" + member + "|s", "b:2|c"}
	got := rec.datagrams()
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("Wrong datagrams %q, expected %q", got, want)
	}
}

func TestExplicitFlush(t *testing.T) {

	w := newBlockedWriter()
	c, err := statsdc.New("", "", statsdc.Output(w), statsdc.Buffering(true))
	if err != nil {
		t.Fatal(err)
	}

	c.Count("a", 1, 1)
	c.Flush()

	// Only the explicit flush makes the buffered line reach Write.
	<-w.entered
	close(w.release)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestShutdownTwice(t *testing.T) {

	c, err := statsdc.New("", "", statsdc.Output(ioutil.Discard))
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := c.Shutdown(); err != statsdc.ErrClosed {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestEmitAfterShutdownDropped(t *testing.T) {

	c, err := statsdc.New("", "", statsdc.Output(ioutil.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	c.Inc("a", 1)
	c.Gauge("g", 1, 1)
	c.Flush()

	if n := c.Dropped(); n != 3 {
		t.Errorf("Expected 3 dropped, got %d", n)
	}
}

func TestBacklogFullDrops(t *testing.T) {

	w := newBlockedWriter()
	c, err := statsdc.New("", "", statsdc.Output(w), statsdc.Backlog(1))
	if err != nil {
		t.Fatal(err)
	}

	c.Inc("a", 1)
	// the worker now sits in Write and the backlog is empty
	<-w.entered

	c.Inc("b", 1) // fills the backlog
	c.Inc("c", 1) // no room, dropped

	if n := c.Dropped(); n != 1 {
		t.Errorf("Expected 1 dropped, got %d", n)
	}

	close(w.release)
	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestShutdownDrainTimeout(t *testing.T) {

	w := newBlockedWriter()
	c, err := statsdc.New("", "",
		statsdc.Output(w),
		statsdc.DrainTimeout(50*time.Millisecond),
		statsdc.ErrorHandler(nil))
	if err != nil {
		t.Fatal(err)
	}

	c.Inc("a", 1)
	<-w.entered

	if err := c.Shutdown(); err != statsdc.ErrDrainTimeout {
		t.Errorf("Expected ErrDrainTimeout, got %v", err)
	}

	close(w.release)
}

func TestErrorHandler(t *testing.T) {

	boom := errors.New("Socket gone")

	var mu sync.Mutex
	var got []error
	h := func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	}

	c, err := statsdc.New("", "", statsdc.Output(errWriter{err: boom}), statsdc.ErrorHandler(h))
	if err != nil {
		t.Fatal(err)
	}

	c.Inc("a", 1)

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != boom {
		t.Errorf("Expected the write error reported once, got %v", got)
	}
}

func TestNewValidation(t *testing.T) {

	_, err := statsdc.New("", "")
	assert.Error(t, err, "no destination at all")

	_, err = statsdc.New("127.0.0.1:notaport", "")
	assert.Error(t, err, "unresolvable port")

	out := ioutil.Discard

	_, err = statsdc.New("", "x", statsdc.Output(out), statsdc.Buffer(0))
	assert.Error(t, err)

	_, err = statsdc.New("", "x", statsdc.Output(out), statsdc.Backlog(0))
	assert.Error(t, err)

	_, err = statsdc.New("", "x", statsdc.Output(out), statsdc.FlushInterval(-time.Second))
	assert.Error(t, err)

	_, err = statsdc.New("", "x", statsdc.Output(out), statsdc.DrainTimeout(-time.Second))
	assert.Error(t, err)

	_, err = statsdc.New("", "x", statsdc.Output(out), statsdc.DialTimeout(-time.Second))
	assert.Error(t, err)

	_, err = statsdc.New("", "x", statsdc.Output(out), statsdc.SampleSource(nil))
	assert.Error(t, err)

	c, err := statsdc.New("", "x", statsdc.Output(out))
	if assert.NoError(t, err) {
		assert.NoError(t, c.Shutdown())
	}
}

func TestFlushInterval(t *testing.T) {

	rec := &recorder{}
	c, err := statsdc.New("", "",
		statsdc.Output(rec),
		statsdc.Buffering(true),
		statsdc.FlushInterval(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	c.Count("a", 1, 1)

	// The line is smaller than the packet, only the timer can have
	// flushed it.
	deadline := time.Now().Add(2 * time.Second)
	for len(rec.datagrams()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("No periodic flush happened")
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := rec.datagrams()
	if got[0] != "a:1|c" {
		t.Errorf("Wrong datagram %q", got[0])
	}

	if err := c.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
