// Package conn implements the per-connection deferred buffer the core
// reads client bytes into and replays verbatim to the selected backend.
package conn

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/darkit/slog"
	"github.com/kordex/protomux/probe"
)

type readResult struct {
	n   int
	err error
}

// Accumulator reads from a client connection into a growable, append-only
// buffer and arbitrates on the cumulative contents after every read.
type Accumulator struct {
	buf []byte
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Bytes returns the bytes accumulated so far. The caller must not modify
// the returned slice.
func (a *Accumulator) Bytes() []byte {
	return a.buf
}

// Replay writes the accumulated bytes to w, for handing the deferred
// buffer to the selected backend.
func (a *Accumulator) Replay(w io.Writer) (int, error) {
	return w.Write(a.buf)
}

// Identify reads from c, accumulating bytes and re-arbitrating on the
// cumulative buffer after each read, until the arbiter reaches a verdict
// (Match) or the idle window elapses. Each read is individually bounded
// by readTimeout; a read that times out without having seen a Match is
// the idle-timeout fallback, while a zero-byte read or any other I/O
// error is the exhaustion fallback, so callers can still open a backend
// connection, which then observes the same failure downstream.
func (a *Accumulator) Identify(ctx context.Context, c net.Conn, cfg *probe.Configuration, readTimeout time.Duration) (probe.Outcome, *probe.ProtocolEntry) {
	readBuf := make([]byte, 4096)
	notify := verboseAttemptLogger(cfg)

	for {
		n, err := readOnce(ctx, c, readBuf, readTimeout)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return probe.Match, probe.TimeoutProtocol(cfg)
			}
			return probe.Match, probe.ExhaustionFallback(cfg)
		}
		if n == 0 {
			return probe.Match, probe.ExhaustionFallback(cfg)
		}

		a.buf = append(a.buf, readBuf[:n]...)

		outcome, entry := probe.ProbeBuffer(cfg.Entries, a.buf, notify)
		if outcome == probe.Match {
			return outcome, entry
		}

		if ctx.Err() != nil {
			return probe.Match, probe.TimeoutProtocol(cfg)
		}
	}
}

// verboseAttemptLogger returns a per-probe-attempt logging hook when cfg
// asks for diagnostic output, or nil when it doesn't. Mirrors the
// verbose-gated "probing for %s" tracing classic sslh-style probers emit.
func verboseAttemptLogger(cfg *probe.Configuration) func(string) {
	if cfg == nil || cfg.Verbose <= 0 {
		return nil
	}
	return func(name string) {
		slog.Debug("probing for protocol", "protocol", name)
	}
}

// ProbeConnection performs exactly one read from c and one arbitration
// pass over the result. On error or an empty read it selects the
// exhaustion fallback entry rather than surfacing the error, so a caller
// can still dial a backend.
func ProbeConnection(ctx context.Context, c net.Conn, cfg *probe.Configuration, readTimeout time.Duration) (probe.Outcome, *probe.ProtocolEntry) {
	buf := make([]byte, 4096)
	n, err := readOnce(ctx, c, buf, readTimeout)
	if err != nil || n == 0 {
		return probe.Match, probe.ExhaustionFallback(cfg)
	}
	return probe.ProbeBuffer(cfg.Entries, buf[:n], verboseAttemptLogger(cfg))
}

// readOnce performs a single bounded read, racing the read against both
// ctx and an explicit per-read deadline.
func readOnce(ctx context.Context, c net.Conn, buf []byte, timeout time.Duration) (int, error) {
	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	readCh := make(chan readResult, 1)
	go func() {
		n, err := c.Read(buf)
		readCh <- readResult{n: n, err: err}
	}()

	select {
	case <-readCtx.Done():
		return 0, readCtx.Err()
	case result := <-readCh:
		return result.n, result.err
	}
}
