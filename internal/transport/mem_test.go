package transport

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"
)

func TestMemConnDelivery(t *testing.T) {
	n := NewNet()
	a := n.Conn("127.0.0.1", 9000)
	b := n.Conn("127.0.0.1", 9001)
	defer a.Close()
	defer b.Close()

	msg := []byte("ping")
	if err := a.SendTo(msg, b.LocalAddr()); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}

	buf := make([]byte, 64)
	got, from, err := b.RecvFromTimeout(buf, time.Second)
	if err != nil {
		t.Fatalf("RecvFromTimeout failed: %v", err)
	}
	if !bytes.Equal(buf[:got], msg) {
		t.Errorf("received %q, want %q", buf[:got], msg)
	}
	if from.String() != a.LocalAddr().String() {
		t.Errorf("source = %s, want %s", from, a.LocalAddr())
	}
}

func TestMemConnTimeout(t *testing.T) {
	n := NewNet()
	a := n.Conn("127.0.0.1", 9000)
	defer a.Close()

	_, _, err := a.RecvFromTimeout(make([]byte, 8), 10*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestMemConnToNowhere(t *testing.T) {
	n := NewNet()
	a := n.Conn("127.0.0.1", 9000)
	defer a.Close()

	// Sending to an unbound address succeeds silently, like UDP.
	if err := a.SendTo([]byte("void"), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4242}); err != nil {
		t.Fatalf("SendTo unbound address failed: %v", err)
	}
}

func TestNetFilterDrops(t *testing.T) {
	n := NewNet()
	a := n.Conn("127.0.0.1", 9000)
	b := n.Conn("127.0.0.1", 9001)
	defer a.Close()
	defer b.Close()

	n.SetFilter(func(from, to *net.UDPAddr, payload []byte) bool {
		return false // drop everything
	})

	if err := a.SendTo([]byte("lost"), b.LocalAddr()); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}
	if _, _, err := b.RecvFromTimeout(make([]byte, 8), 20*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("filtered datagram was delivered (err = %v)", err)
	}
}

func TestMemConnCloseUnblocks(t *testing.T) {
	n := NewNet()
	a := n.Conn("127.0.0.1", 9000)

	done := make(chan error, 1)
	go func() {
		_, _, err := a.RecvFrom(make([]byte, 8))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	a.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("RecvFrom returned nil after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("RecvFrom did not return after Close")
	}
}
