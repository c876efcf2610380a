package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/rudpnet/rudp"
)

// StartStatsReporter launches a goroutine that logs transfer statistics
// every 10 seconds while traffic flows. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, c *rudp.Counters) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevSent, prevRecv, prevRetrans int64
		for {
			select {
			case <-ticker.C:
				sent := c.WireBytesSent.Load()
				recv := c.WireBytesReceived.Load()
				retrans := c.Retransmissions.Load()

				outS := float64(sent-prevSent) / 10.0
				inS := float64(recv-prevRecv) / 10.0

				if inS > 10 || outS > 10 {
					pterm.DefaultLogger.Info(fmt.Sprintf("In: %s/s | Out: %s/s | Retrans: %d",
						formatBytes(inS), formatBytes(outS), retrans-prevRetrans))
				}

				prevSent = sent
				prevRecv = recv
				prevRetrans = retrans

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string,
// for example: "99.0 B", "1.5 KiB", "98.9 GiB".
func formatBytes(b float64) string {
	unitIdx := 0

	for b > 999 && unitIdx < len(byteUnits)-1 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%.1f %s", b, byteUnits[unitIdx])
}
