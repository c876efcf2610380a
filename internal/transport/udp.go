package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// UDP is the production Conn, backed by an IPv4 UDP socket.
type UDP struct {
	conn *net.UDPConn
}

// Listen binds a UDP socket on 0.0.0.0:port with SO_REUSEADDR set, the
// server side of an endpoint.
func Listen(port uint16) (*UDP, error) {
	lc := net.ListenConfig{Control: reuseAddr}

	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", port, err)
	}

	return &UDP{conn: pc.(*net.UDPConn)}, nil
}

// Open creates a UDP socket on an ephemeral local port, the client side
// of an endpoint.
func Open() (*UDP, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}

	return &UDP{conn: conn}, nil
}

func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// SendTo writes a single datagram to addr.
func (u *UDP) SendTo(b []byte, addr *net.UDPAddr) error {
	n, err := u.conn.WriteToUDP(b, addr)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short datagram write: %d of %d bytes", n, len(b))
	}
	return nil
}

// RecvFrom blocks until a datagram arrives.
func (u *UDP) RecvFrom(b []byte) (int, *net.UDPAddr, error) {
	if err := u.conn.SetReadDeadline(time.Time{}); err != nil {
		return 0, nil, err
	}
	return u.conn.ReadFromUDP(b)
}

// RecvFromTimeout waits up to d for a datagram, mapping a deadline expiry
// to ErrTimeout.
func (u *UDP) RecvFromTimeout(b []byte, d time.Duration) (int, *net.UDPAddr, error) {
	if err := u.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return 0, nil, err
	}

	n, from, err := u.conn.ReadFromUDP(b)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, nil, ErrTimeout
	}
	return n, from, err
}

// LocalAddr returns the bound local address.
func (u *UDP) LocalAddr() *net.UDPAddr {
	return u.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the socket.
func (u *UDP) Close() error {
	return u.conn.Close()
}
