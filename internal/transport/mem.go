package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Net is an in-memory datagram network. Conns created on the same Net can
// exchange datagrams addressed by their fake UDP addresses, which makes
// loss, corruption and stray-sender scenarios deterministic in tests.
type Net struct {
	mu     sync.Mutex
	nodes  map[string]*MemConn
	filter func(from, to *net.UDPAddr, payload []byte) bool
}

// NewNet creates an empty in-memory network.
func NewNet() *Net {
	return &Net{nodes: make(map[string]*MemConn)}
}

// SetFilter installs a delivery filter. A filter returning false drops the
// datagram, emulating loss on the wire. A nil filter delivers everything.
func (n *Net) SetFilter(f func(from, to *net.UDPAddr, payload []byte) bool) {
	n.mu.Lock()
	n.filter = f
	n.mu.Unlock()
}

// Conn attaches a new node to the network under the given address.
func (n *Net) Conn(ip string, port int) *MemConn {
	addr := &net.UDPAddr{IP: net.ParseIP(ip).To4(), Port: port}
	c := &MemConn{
		net:   n,
		addr:  addr,
		inbox: make(chan memPacket, 256),
		done:  make(chan struct{}),
	}

	n.mu.Lock()
	n.nodes[addr.String()] = c
	n.mu.Unlock()

	return c
}

func (n *Net) deliver(from *net.UDPAddr, to *net.UDPAddr, b []byte) {
	n.mu.Lock()
	dst, ok := n.nodes[to.String()]
	filter := n.filter
	n.mu.Unlock()

	if !ok {
		return // like UDP, sends to nowhere succeed silently
	}
	if filter != nil && !filter(from, to, b) {
		return
	}

	data := make([]byte, len(b))
	copy(data, b)

	select {
	case dst.inbox <- memPacket{data: data, from: from}:
	default:
		// full inbox drops, like a kernel socket buffer
	}
}

type memPacket struct {
	data []byte
	from *net.UDPAddr
}

// MemConn is a Conn attached to an in-memory Net.
type MemConn struct {
	net   *Net
	addr  *net.UDPAddr
	inbox chan memPacket

	closeOnce sync.Once
	done      chan struct{}
}

// SendTo delivers a datagram to the node bound to addr, if any.
func (c *MemConn) SendTo(b []byte, addr *net.UDPAddr) error {
	select {
	case <-c.done:
		return fmt.Errorf("send on closed conn %s", c.addr)
	default:
	}

	c.net.deliver(c.addr, addr, b)
	return nil
}

// RecvFrom blocks until a datagram arrives or the conn is closed.
func (c *MemConn) RecvFrom(b []byte) (int, *net.UDPAddr, error) {
	select {
	case pkt := <-c.inbox:
		return copy(b, pkt.data), pkt.from, nil
	case <-c.done:
		return 0, nil, fmt.Errorf("receive on closed conn %s", c.addr)
	}
}

// RecvFromTimeout waits up to d for a datagram.
func (c *MemConn) RecvFromTimeout(b []byte, d time.Duration) (int, *net.UDPAddr, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case pkt := <-c.inbox:
		return copy(b, pkt.data), pkt.from, nil
	case <-timer.C:
		return 0, nil, ErrTimeout
	case <-c.done:
		return 0, nil, fmt.Errorf("receive on closed conn %s", c.addr)
	}
}

// LocalAddr returns the address the conn was attached under.
func (c *MemConn) LocalAddr() *net.UDPAddr {
	return c.addr
}

// Close detaches the conn from the network and unblocks pending receives.
func (c *MemConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.net.mu.Lock()
		delete(c.net.nodes, c.addr.String())
		c.net.mu.Unlock()
	})
	return nil
}
