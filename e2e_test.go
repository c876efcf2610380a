package rudp_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/rudpnet/rudp"
)

// TestLoopbackTransfer runs the public API over a real UDP socket pair:
// handshake, a multi-segment transfer, an answer, and a clean teardown.
func TestLoopbackTransfer(t *testing.T) {
	server, err := rudp.NewServer(0, rudp.Options{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	client, err := rudp.NewClient(rudp.Options{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	serverDone := make(chan error, 1)
	go func() {
		if err := server.Accept(); err != nil {
			serverDone <- err
			return
		}
		buf := make([]byte, len(payload))
		n, err := server.Recv(buf)
		if err != nil {
			serverDone <- err
			return
		}
		if n != len(payload) || !bytes.Equal(buf[:n], payload) {
			t.Error("server received corrupted payload")
		}
		if _, err := server.Send([]byte("got it")); err != nil {
			serverDone <- err
			return
		}
		// Wait for the client's teardown.
		if n, err := server.Recv(buf); err != nil || n != 0 {
			t.Errorf("teardown wait = (%d, %v), want (0, nil)", n, err)
		}
		serverDone <- nil
	}()

	port := uint16(server.LocalAddr().Port)
	if err := client.Connect("127.0.0.1", port); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if _, err := client.Send(payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	reply := make([]byte, 64)
	n, err := client.Recv(reply)
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if string(reply[:n]) != "got it" {
		t.Errorf("reply = %q, want %q", reply[:n], "got it")
	}

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Fatalf("server side failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server side did not finish")
	}
}
