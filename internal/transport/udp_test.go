package transport

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestUDPLoopback(t *testing.T) {
	server, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer server.Close()

	client, err := Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer client.Close()

	msg := []byte("over the loopback")
	if err := client.SendTo(msg, server.LocalAddr()); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}

	buf := make([]byte, 64)
	n, from, err := server.RecvFromTimeout(buf, time.Second)
	if err != nil {
		t.Fatalf("RecvFromTimeout failed: %v", err)
	}
	if !bytes.Equal(buf[:n], msg) {
		t.Errorf("received %q, want %q", buf[:n], msg)
	}

	// And back, to the captured source address.
	if err := server.SendTo(buf[:n], from); err != nil {
		t.Fatalf("reply SendTo failed: %v", err)
	}
	if _, _, err := client.RecvFromTimeout(buf, time.Second); err != nil {
		t.Fatalf("reply not received: %v", err)
	}
}

func TestUDPTimeout(t *testing.T) {
	conn, err := Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	_, _, err = conn.RecvFromTimeout(make([]byte, 8), 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}
