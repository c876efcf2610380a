package rudp

import (
	"testing"
	"time"

	"github.com/rudpnet/rudp/internal/transport"
)

// Addresses used by the in-memory network tests.
const (
	serverIP   = "127.0.0.1"
	serverPort = 9000
	clientIP   = "127.0.0.1"
	clientPort = 9001
)

// fastOpts keeps failure-path tests quick with a small retry budget,
// while the timeout stays wide enough that a busy scheduler cannot
// provoke spurious retransmissions on a clean in-memory network.
func fastOpts() Options {
	return Options{Timeout: 200 * time.Millisecond, MaxRetries: 3}
}

// newMemEndpoint attaches a fresh endpoint to the in-memory network.
func newMemEndpoint(t *testing.T, n *transport.Net, role Role, ip string, port int, opts Options) *Endpoint {
	t.Helper()

	conn := n.Conn(ip, port)
	e, err := newEndpoint(role, conn, opts)
	if err != nil {
		conn.Close()
		t.Fatalf("newEndpoint(%s): %v", role, err)
	}
	t.Cleanup(func() { conn.Close() })
	return e
}

// newConnectedPair performs a full handshake between a server and a
// client on the same in-memory network.
func newConnectedPair(t *testing.T, n *transport.Net, serverOpts, clientOpts Options) (*Endpoint, *Endpoint) {
	t.Helper()

	server := newMemEndpoint(t, n, Server, serverIP, serverPort, serverOpts)
	client := newMemEndpoint(t, n, Client, clientIP, clientPort, clientOpts)

	acceptDone := make(chan error, 1)
	go func() { acceptDone <- server.Accept() }()

	if err := client.Connect(serverIP, serverPort); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	select {
	case err := <-acceptDone:
		if err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not complete")
	}

	return server, client
}

// recvResult carries a Recv outcome across the goroutine boundary.
type recvResult struct {
	n   int
	err error
}

// recvAsync runs Recv in a goroutine and returns the result channel.
func recvAsync(e *Endpoint, buf []byte) chan recvResult {
	ch := make(chan recvResult, 1)
	go func() {
		n, err := e.Recv(buf)
		ch <- recvResult{n: n, err: err}
	}()
	return ch
}

// waitRecv waits for an async Recv with a hard deadline.
func waitRecv(t *testing.T, ch chan recvResult) recvResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("Recv did not complete")
		return recvResult{}
	}
}
