package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rudpnet/rudp"
	"github.com/rudpnet/rudp/internal/config"
	"github.com/rudpnet/rudp/internal/metrics"
	"github.com/rudpnet/rudp/internal/util"
)

// RunReceiver runs the receiver daemon: it accepts one peer at a time,
// drains its messages until teardown, then goes back to accepting. The
// optional Prometheus endpoint and the periodic stats reporter run
// alongside until ctx is cancelled.
func RunReceiver(ctx context.Context, cfg *config.Config) error {
	ep, err := rudp.NewServer(cfg.ListenPort, rudp.Options{
		MTU:        cfg.MTU,
		Timeout:    time.Duration(cfg.TimeoutMs) * time.Millisecond,
		MaxRetries: cfg.MaxRetries,
		Debug:      cfg.Debug,
	})
	if err != nil {
		return err
	}
	defer ep.Close()

	// Closing the endpoint unblocks the indefinite accept/recv waits.
	stop := context.AfterFunc(ctx, func() { ep.Close() })
	defer stop()

	util.Infof("listening on %s", ep.LocalAddr())

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry(ep.Counters())
		g.Go(func() error {
			util.Infof("serving metrics on http://%s%s", cfg.Metrics.Listen, cfg.Metrics.Path)
			return metrics.Serve(ctx, cfg.Metrics.Listen, cfg.Metrics.Path, reg)
		})
	}

	StartStatsReporter(ctx, ep.Counters())

	g.Go(func() error {
		err := serveLoop(ctx, ep, cfg.BufferSize)
		if ctx.Err() != nil {
			return nil // shutdown requested, socket closed under us
		}
		return err
	})

	return g.Wait()
}

func serveLoop(ctx context.Context, ep *rudp.Endpoint, bufferSize int) error {
	buf := make([]byte, bufferSize)

	for ctx.Err() == nil {
		if err := ep.Accept(); err != nil {
			if errors.Is(err, rudp.ErrPeerClosed) {
				continue
			}
			return err
		}

		for {
			start := time.Now()
			n, err := ep.Recv(buf)
			if err != nil {
				if errors.Is(err, rudp.ErrRetriesExceeded) {
					util.Warnf("peer went silent mid-transfer: %v", err)
					break
				}
				return err
			}
			if n == 0 {
				util.Infof("peer disconnected")
				break
			}

			elapsed := time.Since(start)
			received := buf[:clamp(n, len(buf))]
			util.Infof("received %d bytes in %v (%s/s, digest %s)",
				n, elapsed.Round(time.Millisecond), formatBytes(rate(n, elapsed)), util.Digest(received))
			if n > len(buf) {
				util.Warnf("message truncated: %d bytes did not fit the %d byte buffer", n-len(buf), len(buf))
			}
		}

		if ep.IsConnected() {
			// Recv bailed out without a peer teardown; close our side.
			if err := ep.Disconnect(); err != nil {
				util.Warnf("teardown after failed transfer: %v", err)
			}
		}
	}
	return nil
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}
