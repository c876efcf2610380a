// Package app contains the top-level orchestration for the example
// sender and receiver programs.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/rudpnet/rudp"
	"github.com/rudpnet/rudp/internal/util"
)

// SenderOptions parameterizes one sender run.
type SenderOptions struct {
	IP    string
	Port  uint16
	Size  int // payload bytes per transfer
	Count int // number of transfers

	Endpoint rudp.Options
}

// RunSender connects to a receiver, transmits Count random payloads of
// Size bytes while timing each transfer, and prints a summary table.
func RunSender(ctx context.Context, opts SenderOptions) error {
	ep, err := rudp.NewClient(opts.Endpoint)
	if err != nil {
		return err
	}
	defer ep.Close()

	// Closing the endpoint is the only way to abort a blocked transfer.
	stop := context.AfterFunc(ctx, func() { ep.Close() })
	defer stop()

	util.Infof("connecting to %s:%d...", opts.IP, opts.Port)
	if err := ep.Connect(opts.IP, opts.Port); err != nil {
		return fmt.Errorf("establish connection: %w", err)
	}

	peerMTU, _ := ep.PeerMTU()
	util.Infof("negotiated MTU: local %d, peer %d", ep.MTU(), peerMTU)

	payload := make([]byte, opts.Size)
	if _, err := rand.Read(payload); err != nil {
		return fmt.Errorf("generate payload: %w", err)
	}
	util.Infof("generated %d bytes of random data (digest %s)", len(payload), util.Digest(payload))

	var durations []time.Duration

	for i := 0; i < opts.Count; i++ {
		start := time.Now()
		n, err := ep.Send(payload)
		if err != nil {
			return fmt.Errorf("transfer %d/%d: %w", i+1, opts.Count, err)
		}
		if n == 0 && opts.Size > 0 {
			util.Warnf("peer closed the connection during transfer %d/%d", i+1, opts.Count)
			return nil
		}

		elapsed := time.Since(start)
		durations = append(durations, elapsed)
		util.Infof("transfer %d/%d: %d bytes in %v (%s/s)",
			i+1, opts.Count, n, elapsed.Round(time.Millisecond), formatBytes(rate(n, elapsed)))
	}

	printSenderSummary(durations, opts.Size, ep.Counters())

	if err := ep.Disconnect(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

func printSenderSummary(durations []time.Duration, size int, c *rudp.Counters) {
	if len(durations) == 0 {
		return
	}

	minD, maxD, sum := durations[0], durations[0], time.Duration(0)
	for _, d := range durations {
		if d < minD {
			minD = d
		}
		if d > maxD {
			maxD = d
		}
		sum += d
	}
	avg := sum / time.Duration(len(durations))

	pterm.Println()
	pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Transfers", "Payload", "Min", "Avg", "Max", "Avg throughput", "Retransmissions"},
		{
			fmt.Sprintf("%d", len(durations)),
			formatBytes(float64(size)),
			minD.Round(time.Millisecond).String(),
			avg.Round(time.Millisecond).String(),
			maxD.Round(time.Millisecond).String(),
			formatBytes(rate(size, avg)) + "/s",
			fmt.Sprintf("%d", c.Retransmissions.Load()),
		},
	}).Render()
}

func rate(bytes int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(bytes) / d.Seconds()
}
