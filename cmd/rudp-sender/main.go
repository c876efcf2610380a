// rudp-sender — example client.
//
// Connects to a rudp-receiver and transmits random payloads over the
// reliable datagram transport, timing each transfer. It can be launched
// non-interactively via flags (-ip, -p, ...) or with no flags, in which
// case it prompts for the target address.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/rudpnet/rudp"
	"github.com/rudpnet/rudp/internal/app"
	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/util"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ip := flag.String("ip", "", "Receiver IPv4 address")
	port := flag.Int("p", 0, "Receiver port, 1~65535")
	size := flag.Int("size", 10*1024*1024, "Payload bytes per transfer")
	count := flag.Int("count", 1, "Number of transfers")
	mtu := flag.Int("mtu", protocol.DefaultMTU, "MTU in bytes")
	timeout := flag.Int("timeout", protocol.DefaultTimeoutMs, "ACK wait in milliseconds")
	retries := flag.Int("retries", protocol.DefaultMaxRetries, "Retry budget per segment")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("rudp-sender — v%s", version))
	pterm.Println()

	if *ip == "" {
		*ip = askIP()
		*port = askPort("Receiver port (1 ~ 65535)")
	}

	if net.ParseIP(*ip) == nil || net.ParseIP(*ip).To4() == nil {
		util.Errorf("invalid IPv4 address: %s", *ip)
		os.Exit(1)
	}
	if *port < 1 || *port > 65535 {
		util.Errorf("invalid or missing -p (must be 1~65535)")
		os.Exit(1)
	}
	if *size < 0 {
		util.Errorf("invalid -size: must not be negative")
		os.Exit(1)
	}

	opts := app.SenderOptions{
		IP:    *ip,
		Port:  uint16(*port),
		Size:  *size,
		Count: *count,
		Endpoint: rudp.Options{
			MTU:        uint16(*mtu),
			Timeout:    time.Duration(*timeout) * time.Millisecond,
			MaxRetries: *retries,
			Debug:      *debugMode,
		},
	}

	if err := app.RunSender(ctx, opts); err != nil {
		util.Errorf("sender failed: %v", err)
		os.Exit(1)
	}

	util.Infof("all transfers completed")
}

// askIP prompts the user for an IPv4 address until a valid one is entered.
func askIP() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Receiver IPv4 address (e.g. 127.0.0.1)").
			Show()

		ip := net.ParseIP(strings.TrimSpace(raw))
		if ip != nil && ip.To4() != nil {
			pterm.Println()
			return ip.To4().String()
		}

		util.Warnf("invalid input: please enter an IPv4 address")
		pterm.Println()
	}
}

// askPort prompts the user for a port number until a valid one is entered.
func askPort(prompt string) int {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText(prompt).
			Show()

		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && port >= 1 && port <= 65535 {
			pterm.Println()
			return port
		}

		util.Warnf("invalid port number: must be 1 ~ 65535")
		pterm.Println()
	}
}
