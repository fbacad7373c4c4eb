// Package listener runs the accept loop: it owns the TCP listener, bounds
// concurrent connections, drives each connection's protocol identification
// through the probe/conn packages, and hands matched connections off to the
// forward package.
package listener

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darkit/slog"
	"github.com/kordex/protomux/conn"
	"github.com/kordex/protomux/forward"
	"github.com/kordex/protomux/probe"
)

// Config controls the listener's resource limits and timeouts.
type Config struct {
	MaxConnections  int
	BufferSize      int
	IdentifyTimeout time.Duration
	DialTimeout     time.Duration
}

// DefaultConfig mirrors the defaults this class of daemon has historically
// shipped with.
var DefaultConfig = Config{
	MaxConnections:  1024,
	BufferSize:      32 * 1024,
	IdentifyTimeout: 15 * time.Second,
	DialTimeout:     5 * time.Second,
}

// Metrics holds process-wide counters updated concurrently from every
// connection goroutine.
type Metrics struct {
	ActiveConnections atomic.Int64
	IdentifyErrors    atomic.Int64
	ProxyErrors       atomic.Int64
	ProtocolHits      sync.Map // map[string]*atomic.Int64
	ProtocolTraffic   sync.Map // map[string]*forward.Traffic
}

// Listener accepts connections, identifies their protocol, and forwards
// matched connections to the configured backend.
type Listener struct {
	cfg       Config
	proto     *probe.Configuration
	metrics   Metrics
	semaphore chan struct{}
}

// New creates a Listener bound to proto's protocol chain.
func New(proto *probe.Configuration, cfg Config) *Listener {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultConfig.MaxConnections
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig.BufferSize
	}
	if cfg.IdentifyTimeout <= 0 {
		cfg.IdentifyTimeout = DefaultConfig.IdentifyTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig.DialTimeout
	}

	return &Listener{
		cfg:       cfg,
		proto:     proto,
		semaphore: make(chan struct{}, cfg.MaxConnections),
	}
}

// Metrics returns a snapshot of the listener's counters.
func (l *Listener) Metrics() map[string]any {
	hits := make(map[string]int64)
	l.metrics.ProtocolHits.Range(func(key, value any) bool {
		hits[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	traffic := make(map[string]map[string]int64)
	l.metrics.ProtocolTraffic.Range(func(key, value any) bool {
		t := value.(*forward.Traffic)
		traffic[key.(string)] = map[string]int64{
			"in_bytes":  t.In.Load(),
			"out_bytes": t.Out.Load(),
		}
		return true
	})

	return map[string]any{
		"active_connections": l.metrics.ActiveConnections.Load(),
		"identify_errors":    l.metrics.IdentifyErrors.Load(),
		"proxy_errors":       l.metrics.ProxyErrors.Load(),
		"protocol_hits":      hits,
		"protocol_traffic":   traffic,
	}
}

// Serve accepts connections on address until ctx is cancelled or the
// listener is closed.
func (l *Listener) Serve(ctx context.Context, address string) error {
	if len(l.proto.Entries) == 0 {
		return errors.New("listener: no protocols configured")
	}

	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	defer ln.Close()

	slog.Info("listener started", "address", address, "protocols", len(l.proto.Entries))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Error("accept error", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.handle(ctx, c)
		}()
	}
}

func (l *Listener) handle(ctx context.Context, c net.Conn) {
	if tcpConn, ok := c.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	select {
	case l.semaphore <- struct{}{}:
		defer func() { <-l.semaphore }()
	default:
		slog.Error("max connections reached, rejecting connection", "remote_addr", c.RemoteAddr().String())
		c.Close()
		return
	}

	l.metrics.ActiveConnections.Add(1)
	defer l.metrics.ActiveConnections.Add(-1)
	defer c.Close()

	acc := conn.NewAccumulator()
	outcome, entry := acc.Identify(ctx, c, l.proto, l.cfg.IdentifyTimeout)
	if outcome != probe.Match || entry == nil {
		l.metrics.IdentifyErrors.Add(1)
		slog.Error("failed to identify protocol", "remote_addr", c.RemoteAddr().String())
		return
	}

	l.countHit(entry.Name)
	slog.Info("connection identified", "protocol", entry.Name, "remote_addr", c.RemoteAddr().String(), "target", entry.Target)

	traffic := l.trafficFor(entry.Name)
	if err := forward.To(ctx, c, entry, acc.Bytes(), l.cfg.BufferSize, l.cfg.DialTimeout, traffic); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		l.metrics.ProxyErrors.Add(1)
		slog.Error("forwarding error", "protocol", entry.Name, "error", err)
	}

	slog.Info("connection closed", "protocol", entry.Name, "remote_addr", c.RemoteAddr().String())
}

func (l *Listener) countHit(name string) {
	v, _ := l.metrics.ProtocolHits.LoadOrStore(name, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func (l *Listener) trafficFor(name string) *forward.Traffic {
	v, _ := l.metrics.ProtocolTraffic.LoadOrStore(name, &forward.Traffic{})
	return v.(*forward.Traffic)
}
