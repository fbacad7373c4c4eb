// Command protomuxd runs a single-port protocol multiplexer: it accepts
// connections on one listening address, classifies each connection's
// protocol from its opening bytes, and forwards it to the matching
// backend.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/darkit/slog"
	"github.com/kordex/protomux/config"
	"github.com/kordex/protomux/listener"
)

func main() {
	var (
		configPath = flag.String("config", "protomux.yaml", "path to the protocol configuration file")
		listenAddr = flag.String("listen", "0.0.0.0:443", "address to listen on")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ln := listener.New(cfg, listener.DefaultConfig)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := ln.Serve(ctx, *listenAddr); err != nil {
		slog.Error("listener exited", "error", err)
		os.Exit(1)
	}
}
