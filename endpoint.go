package rudp

import (
	"fmt"
	"math"
	"net"
	"time"

	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/transport"
	"github.com/rudpnet/rudp/internal/util"
)

// Role selects the endpoint's side of the association.
type Role int

const (
	Server Role = iota
	Client
)

func (r Role) String() string {
	if r == Server {
		return "server"
	}
	return "client"
}

// MinMTU is the smallest accepted MTU: a datagram must fit a header plus
// a handshake parameter payload.
const MinMTU = protocol.MinMTU

// MinTimeout is the smallest accepted per-round-trip wait.
const MinTimeout = protocol.MinTimeoutMs * time.Millisecond

// Options configures a new endpoint. Zero values take the protocol
// defaults (MTU 1458, timeout 100ms, 50 retries, debug off).
type Options struct {
	// MTU is the largest datagram (header included) the endpoint emits.
	MTU uint16

	// Timeout is the wait for an ACK / SYN|ACK / FIN|ACK before a
	// retransmission.
	Timeout time.Duration

	// MaxRetries bounds the retransmissions of a single handshake,
	// teardown or data segment before the operation fails.
	MaxRetries int

	// Debug enables per-packet diagnostics through the util logger.
	Debug bool
}

// Endpoint is a reliable datagram endpoint. It owns its socket
// exclusively and must not be used from multiple goroutines.
type Endpoint struct {
	role Role
	conn transport.Conn

	mtu        uint16
	timeout    time.Duration
	maxRetries int
	debug      bool

	connected bool
	peerAddr  *net.UDPAddr
	peerMTU   uint16

	counters Counters
}

// NewServer creates a server endpoint bound to 0.0.0.0:listenPort with
// SO_REUSEADDR set.
func NewServer(listenPort uint16, opts Options) (*Endpoint, error) {
	conn, err := transport.Listen(listenPort)
	if err != nil {
		return nil, err
	}

	e, err := newEndpoint(Server, conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return e, nil
}

// NewClient creates a client endpoint on an ephemeral local port.
func NewClient(opts Options) (*Endpoint, error) {
	conn, err := transport.Open()
	if err != nil {
		return nil, err
	}

	e, err := newEndpoint(Client, conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return e, nil
}

// newEndpoint wires an endpoint over an arbitrary transport. Tests use it
// to run endpoints on an in-memory network.
func newEndpoint(role Role, conn transport.Conn, opts Options) (*Endpoint, error) {
	if opts.MTU == 0 {
		opts.MTU = protocol.DefaultMTU
	}
	if opts.Timeout == 0 {
		opts.Timeout = protocol.DefaultTimeoutMs * time.Millisecond
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = protocol.DefaultMaxRetries
	}

	e := &Endpoint{role: role, conn: conn, debug: opts.Debug}
	if err := e.SetMTU(opts.MTU); err != nil {
		return nil, err
	}
	if err := e.SetTimeout(opts.Timeout); err != nil {
		return nil, err
	}
	if err := e.SetMaxRetries(opts.MaxRetries); err != nil {
		return nil, err
	}
	return e, nil
}

// Close tears down the association if one is active and releases the
// socket. Closing from another goroutine is the one sanctioned way to
// abort an in-flight call: the blocked I/O primitive fails and the call
// returns an error.
func (e *Endpoint) Close() error {
	if e.connected {
		if err := e.Disconnect(); err != nil {
			util.Warnf("close: teardown failed: %v", err)
		}
	}
	return e.conn.Close()
}

// IsConnected reports whether a handshake has completed and no teardown
// has happened since.
func (e *Endpoint) IsConnected() bool { return e.connected }

// IsServer reports whether the endpoint was created with the server role.
func (e *Endpoint) IsServer() bool { return e.role == Server }

// LocalAddr returns the bound local address.
func (e *Endpoint) LocalAddr() *net.UDPAddr { return e.conn.LocalAddr() }

// MTU returns the configured MTU.
func (e *Endpoint) MTU() uint16 { return e.mtu }

// SetMTU changes the configured MTU. The MTU is negotiated during the
// handshake and therefore frozen while connected.
func (e *Endpoint) SetMTU(mtu uint16) error {
	if e.connected {
		return fmt.Errorf("change MTU: %w", ErrAlreadyConnected)
	}
	if mtu < protocol.MinMTU {
		return fmt.Errorf("MTU %d: %w (minimum %d)", mtu, ErrMTUTooSmall, protocol.MinMTU)
	}
	e.mtu = mtu
	return nil
}

// Timeout returns the configured per-round-trip wait.
func (e *Endpoint) Timeout() time.Duration { return e.timeout }

// SetTimeout changes the per-round-trip wait. The value travels in a
// 16-bit millisecond field during the handshake, bounding it above.
func (e *Endpoint) SetTimeout(d time.Duration) error {
	if e.connected {
		return fmt.Errorf("change timeout: %w", ErrAlreadyConnected)
	}
	if d < MinTimeout {
		return fmt.Errorf("timeout %v: %w (minimum %v)", d, ErrTimeoutTooSmall, MinTimeout)
	}
	if d > math.MaxUint16*time.Millisecond {
		return fmt.Errorf("timeout %v: %w", d, ErrTimeoutTooLarge)
	}
	e.timeout = d
	return nil
}

// MaxRetries returns the configured retry budget.
func (e *Endpoint) MaxRetries() int { return e.maxRetries }

// SetMaxRetries changes the retry budget.
func (e *Endpoint) SetMaxRetries(n int) error {
	if e.connected {
		return fmt.Errorf("change retry budget: %w", ErrAlreadyConnected)
	}
	if n < 1 || n > math.MaxUint16 {
		return fmt.Errorf("retry budget %d: %w", n, ErrZeroRetries)
	}
	e.maxRetries = n
	return nil
}

// Debug reports whether per-packet diagnostics are enabled.
func (e *Endpoint) Debug() bool { return e.debug }

// SetDebug toggles per-packet diagnostics. Legal at any time.
func (e *Endpoint) SetDebug(on bool) { e.debug = on }

// PeerMTU returns the MTU the peer advertised during the handshake.
func (e *Endpoint) PeerMTU() (uint16, error) {
	if !e.connected {
		return 0, fmt.Errorf("peer MTU: %w", ErrNotConnected)
	}
	return e.peerMTU, nil
}

// ForceUseOwnMTU overrides the negotiated MTU with the local one for the
// remainder of the connection. If the peer genuinely cannot carry larger
// datagrams, transfers will fail; use with care.
func (e *Endpoint) ForceUseOwnMTU() error {
	if !e.connected {
		return fmt.Errorf("force own MTU: %w", ErrNotConnected)
	}
	e.peerMTU = e.mtu
	return nil
}

// Counters returns the endpoint's cumulative transfer counters. The
// pointer stays valid for the endpoint's lifetime and is safe to read
// from a reporter goroutine.
func (e *Endpoint) Counters() *Counters { return &e.counters }

// segmentSize is the application bytes carried per data packet:
// min(local MTU, peer MTU) minus the header.
func (e *Endpoint) segmentSize() int {
	mtu := e.mtu
	if e.peerMTU < mtu {
		mtu = e.peerMTU
	}
	return int(mtu) - protocol.HeaderSize
}

// synPayload snapshots the local parameters for a SYN / SYN|ACK packet.
func (e *Endpoint) synPayload() *protocol.SynPayload {
	var debug uint16
	if e.debug {
		debug = 1
	}
	return &protocol.SynPayload{
		MTU:        e.mtu,
		TimeoutMs:  uint16(e.timeout / time.Millisecond),
		MaxRetries: uint16(e.maxRetries),
		Debug:      debug,
	}
}

// sendControl transmits a control packet to dest. Packets carrying the
// SYN flag also carry the local parameter payload.
func (e *Endpoint) sendControl(flags uint8, seqNum uint32, dest *net.UDPAddr) error {
	var syn *protocol.SynPayload
	if flags&protocol.FlagSYN != 0 {
		syn = e.synPayload()
	}

	pkt := protocol.EncodeControl(flags, seqNum, syn)
	if err := e.conn.SendTo(pkt, dest); err != nil {
		return fmt.Errorf("send control packet: %w", err)
	}

	e.counters.PacketsSent.Add(1)
	e.counters.WireBytesSent.Add(int64(len(pkt)))
	return nil
}

func (e *Endpoint) debugf(format string, args ...interface{}) {
	if e.debug {
		util.Debugf(format, args...)
	}
}
