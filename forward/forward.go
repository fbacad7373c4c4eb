// Package forward dials a matched entry's backend, replays the deferred
// buffer as the first bytes the backend sees, and splices the connection
// bidirectionally.
package forward

import (
	"context"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kordex/protomux/probe"
	"golang.org/x/sync/errgroup"
)

var bufPool = sync.Pool{}

func getBuf(size int) []byte {
	if v := bufPool.Get(); v != nil {
		if b := v.([]byte); len(b) >= size {
			return b[:size]
		}
	}
	return make([]byte, size)
}

func putBuf(b []byte) { bufPool.Put(b) }

// Traffic holds the byte counters a forwarded connection updates.
type Traffic struct {
	In  atomic.Int64
	Out atomic.Int64
}

// To dials entry's backend, writes preface first, then splices client and
// backend bidirectionally until either side closes or ctx is cancelled.
// traffic may be nil if the caller doesn't want byte counts.
func To(ctx context.Context, client net.Conn, entry *probe.ProtocolEntry, preface []byte, bufSize int, dialTimeout time.Duration, traffic *Traffic) error {
	backend, err := dial(ctx, entry.Target, dialTimeout)
	if err != nil {
		return err
	}
	defer backend.Close()

	if len(preface) > 0 {
		if _, err := backend.Write(preface); err != nil {
			return err
		}
		countOut(traffic, len(preface))
	}

	optimizeTCPConn(client, bufSize)
	optimizeTCPConn(backend, bufSize)

	// Whichever direction finishes first, even cleanly, stops the other.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { defer cancel(); return splice(ctx, client, backend, bufSize, countIn, traffic) })
	eg.Go(func() error { defer cancel(); return splice(ctx, backend, client, bufSize, countOut, traffic) })
	return eg.Wait()
}

func dial(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}

	scheme, host := "tcp", address
	if u, err := url.Parse(address); err == nil && u.Host != "" {
		scheme, host = u.Scheme, u.Host
	}

	return dialer.DialContext(ctx, scheme, host)
}

func optimizeTCPConn(c net.Conn, bufSize int) {
	tcpConn, ok := c.(*net.TCPConn)
	if !ok {
		return
	}
	tcpConn.SetNoDelay(true)
	tcpConn.SetKeepAlive(true)
	tcpConn.SetReadBuffer(bufSize)
	tcpConn.SetWriteBuffer(bufSize)
}

// splice copies src -> dst (client -> backend, like the preface, is "out"
// traffic; backend -> client is "in"), counting bytes via count as they're
// written.
func splice(ctx context.Context, dst, src net.Conn, bufSize int, count func(*Traffic, int), traffic *Traffic) error {
	buf := getBuf(bufSize)
	defer putBuf(buf)

	counter := &countingWriter{w: dst, count: count, traffic: traffic}

	done := make(chan error, 1)
	go func() {
		_, err := io.CopyBuffer(counter, src, buf)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// Unblock the copy and wait for it, so buf is not reused while
		// the copy still holds it.
		src.SetReadDeadline(time.Now())
		dst.SetWriteDeadline(time.Now())
		<-done
		return ctx.Err()
	}
}

type countingWriter struct {
	w       io.Writer
	count   func(*Traffic, int)
	traffic *Traffic
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count(c.traffic, n)
	return n, err
}

func countIn(t *Traffic, n int) {
	if t != nil {
		t.In.Add(int64(n))
	}
}

func countOut(t *Traffic, n int) {
	if t != nil {
		t.Out.Add(int64(n))
	}
}
