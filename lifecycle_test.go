package rudp

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/transport"
)

func TestHandshakeExchangesParameters(t *testing.T) {
	n := transport.NewNet()
	serverOpts := fastOpts()
	serverOpts.MTU = 500
	clientOpts := fastOpts()
	clientOpts.MTU = 1458

	server, client := newConnectedPair(t, n, serverOpts, clientOpts)

	if !server.IsConnected() || !client.IsConnected() {
		t.Fatal("handshake did not connect both sides")
	}

	serverPeerMTU, err := server.PeerMTU()
	if err != nil {
		t.Fatalf("server PeerMTU failed: %v", err)
	}
	clientPeerMTU, err := client.PeerMTU()
	if err != nil {
		t.Fatalf("client PeerMTU failed: %v", err)
	}

	if serverPeerMTU != 1458 {
		t.Errorf("server sees peer MTU %d, want 1458", serverPeerMTU)
	}
	if clientPeerMTU != 500 {
		t.Errorf("client sees peer MTU %d, want 500", clientPeerMTU)
	}

	// Both sides segment on the smaller MTU.
	want := 500 - protocol.HeaderSize
	if server.segmentSize() != want || client.segmentSize() != want {
		t.Errorf("segment sizes = %d/%d, want %d", server.segmentSize(), client.segmentSize(), want)
	}
}

func TestTeardown(t *testing.T) {
	n := transport.NewNet()
	server, client := newConnectedPair(t, n, fastOpts(), fastOpts())

	// The server parks in Recv; the client's FIN lands there and is
	// answered with FIN|ACK.
	recvCh := recvAsync(server, make([]byte, 64))

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	r := waitRecv(t, recvCh)
	if r.err != nil {
		t.Fatalf("server Recv failed: %v", r.err)
	}
	if r.n != 0 {
		t.Errorf("server Recv = %d, want 0 (peer EOF)", r.n)
	}

	if client.IsConnected() || server.IsConnected() {
		t.Error("endpoints still connected after teardown")
	}

	// Teardown is idempotent only in state: a second call is an error.
	if err := client.Disconnect(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("second Disconnect: err = %v, want ErrNotConnected", err)
	}
}

func TestConnectRetryExhaustion(t *testing.T) {
	n := transport.NewNet()
	client := newMemEndpoint(t, n, Client, clientIP, clientPort, fastOpts())

	// No server node: every SYN disappears.
	start := time.Now()
	err := client.Connect(serverIP, serverPort)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrRetriesExceeded) {
		t.Fatalf("err = %v, want ErrRetriesExceeded", err)
	}
	if client.IsConnected() {
		t.Error("endpoint connected despite handshake failure")
	}
	if got := client.counters.PacketsSent.Load(); got != int64(client.MaxRetries()) {
		t.Errorf("SYN transmissions = %d, want %d", got, client.MaxRetries())
	}
	if minWait := time.Duration(client.MaxRetries()) * client.Timeout(); elapsed < minWait {
		t.Errorf("gave up after %v, want at least %v", elapsed, minWait)
	}
}

func TestConnectRejectedByPeer(t *testing.T) {
	n := transport.NewNet()
	client := newMemEndpoint(t, n, Client, clientIP, clientPort, fastOpts())

	// A fake responder that answers every SYN with FIN.
	responder := n.Conn(serverIP, serverPort)
	defer responder.Close()
	go func() {
		buf := make([]byte, 1500)
		if _, from, err := responder.RecvFrom(buf); err == nil {
			responder.SendTo(protocol.EncodeControl(protocol.FlagFIN, 0, nil), from)
		}
	}()

	if err := client.Connect(serverIP, serverPort); !errors.Is(err, ErrConnectionRefused) {
		t.Fatalf("err = %v, want ErrConnectionRefused", err)
	}
}

func TestAcceptSkipsInvalidRequests(t *testing.T) {
	n := transport.NewNet()
	server := newMemEndpoint(t, n, Server, serverIP, serverPort, fastOpts())
	client := newMemEndpoint(t, n, Client, clientIP, clientPort, fastOpts())

	noise := n.Conn("127.0.0.1", 9002)
	defer noise.Close()

	acceptDone := make(chan error, 1)
	go func() { acceptDone <- server.Accept() }()

	// Garbage first: a corrupt packet and a parameterless data packet.
	noise.SendTo([]byte{0x01, 0x02, 0x03}, server.LocalAddr())
	noise.SendTo(protocol.EncodeData(0, []byte("psh"), true), server.LocalAddr())

	time.Sleep(20 * time.Millisecond)
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

	if server.peerAddr.String() != client.LocalAddr().String() {
		t.Errorf("server peer = %s, want %s", server.peerAddr, client.LocalAddr())
	}
}

func TestDisconnectSwallowsExhaustion(t *testing.T) {
	n := transport.NewNet()
	_, client := newConnectedPair(t, n, fastOpts(), fastOpts())

	// Every FIN is lost; the client assumes the peer is gone.
	n.SetFilter(func(_, _ *net.UDPAddr, _ []byte) bool { return false })

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect = %v, want nil despite exhaustion", err)
	}
	if client.IsConnected() {
		t.Error("endpoint still connected after teardown exhaustion")
	}
}
