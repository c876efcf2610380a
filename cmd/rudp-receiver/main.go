// rudp-receiver — example server.
//
// Binds a local port, accepts one sender at a time and drains its
// transfers, logging size, digest and throughput for each. Configuration
// comes from flags or a YAML file (-config); the YAML file also enables
// the optional Prometheus metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/rudpnet/rudp/internal/app"
	"github.com/rudpnet/rudp/internal/config"
	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/util"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	configPath := flag.String("config", "", "Path to a YAML configuration file")
	port := flag.Int("p", 0, "Listen port, 1~65535")
	mtu := flag.Int("mtu", protocol.DefaultMTU, "MTU in bytes")
	timeout := flag.Int("timeout", protocol.DefaultTimeoutMs, "ACK wait in milliseconds")
	retries := flag.Int("retries", protocol.DefaultMaxRetries, "Retry budget per segment")
	bufSize := flag.Int("buffer", 16*1024*1024, "Receive buffer capacity in bytes")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9091)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("rudp-receiver — v%s", version))
	pterm.Println()

	cfg, err := buildConfig(*configPath, *port, *mtu, *timeout, *retries, *bufSize, *metricsAddr, *debugMode)
	if err != nil {
		util.Errorf("%v", err)
		os.Exit(1)
	}

	if err := app.RunReceiver(ctx, cfg); err != nil {
		util.Errorf("receiver failed: %v", err)
		os.Exit(1)
	}

	util.Infof("receiver stopped")
}

// buildConfig loads the YAML file when given, otherwise assembles a
// configuration from the flags.
func buildConfig(path string, port, mtu, timeout, retries, bufSize int, metricsAddr string, debug bool) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid or missing -p (must be 1~65535)")
	}

	cfg := config.Default()
	cfg.ListenPort = uint16(port)
	cfg.MTU = uint16(mtu)
	cfg.TimeoutMs = timeout
	cfg.MaxRetries = retries
	cfg.BufferSize = bufSize
	cfg.Debug = debug
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
