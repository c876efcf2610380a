package rudp

import (
	"errors"
	"fmt"
	"net"

	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/transport"
	"github.com/rudpnet/rudp/internal/util"
)

// Connect performs the client side of the handshake: it sends SYN packets
// carrying the local parameters to ip:port until a valid SYN|ACK arrives
// or the retry budget runs out. On success the peer's advertised MTU is
// adopted for segmentation.
func (e *Endpoint) Connect(ip string, port uint16) error {
	if e.role != Client {
		return fmt.Errorf("connect on a server endpoint: %w (use Accept)", ErrRole)
	}
	if e.connected {
		return fmt.Errorf("connect: %w", ErrAlreadyConnected)
	}

	addr := net.ParseIP(ip)
	if addr == nil || addr.To4() == nil {
		return fmt.Errorf("connect: invalid IPv4 address %q", ip)
	}
	e.peerAddr = &net.UDPAddr{IP: addr.To4(), Port: int(port)}

	buf := make([]byte, e.mtu)

	for tries := 0; tries < e.maxRetries; tries++ {
		if tries > 0 {
			e.counters.Retransmissions.Add(1)
		}
		if err := e.sendControl(protocol.FlagSYN, 0, e.peerAddr); err != nil {
			return err
		}

		n, from, err := e.conn.RecvFromTimeout(buf, e.timeout)
		if errors.Is(err, transport.ErrTimeout) {
			e.debugf("handshake timeout, retrying (%d/%d)", tries+1, e.maxRetries)
			continue
		}
		if err != nil {
			return fmt.Errorf("receive handshake reply: %w", err)
		}

		e.counters.PacketsReceived.Add(1)
		e.counters.WireBytesReceived.Add(int64(n))

		if !e.checkSource(from) {
			tries--
			continue
		}

		switch e.checkPacket(buf[:n], protocol.FlagSYN|protocol.FlagACK) {
		case verdictDrop:
			e.debugf("invalid handshake reply, retrying (%d/%d)", tries+1, e.maxRetries)
			continue
		case verdictPeerClosed:
			return fmt.Errorf("connect to %s: %w", e.peerAddr, ErrConnectionRefused)
		}

		syn, err := protocol.DecodeSynPayload(buf[:n])
		if err != nil {
			e.debugf("handshake reply without parameters, retrying (%d/%d)", tries+1, e.maxRetries)
			continue
		}

		e.peerMTU = syn.MTU
		e.connected = true
		util.Infof("connection established with %s (peer MTU %d)", e.peerAddr, e.peerMTU)
		return nil
	}

	return fmt.Errorf("connect to %s: %w", e.peerAddr, ErrRetriesExceeded)
}

// Accept performs the server side of the handshake. It blocks without a
// timeout until a valid SYN arrives, stores the sender as the peer,
// adopts its advertised MTU and answers with SYN|ACK.
func (e *Endpoint) Accept() error {
	if e.role != Server {
		return fmt.Errorf("accept on a client endpoint: %w (use Connect)", ErrRole)
	}
	if e.connected {
		return fmt.Errorf("accept: %w", ErrAlreadyConnected)
	}

	buf := make([]byte, e.mtu)

	for {
		n, from, err := e.conn.RecvFrom(buf)
		if err != nil {
			return fmt.Errorf("receive connection request: %w", err)
		}

		e.counters.PacketsReceived.Add(1)
		e.counters.WireBytesReceived.Add(int64(n))

		switch e.checkPacket(buf[:n], protocol.FlagSYN) {
		case verdictDrop:
			continue
		case verdictPeerClosed:
			return fmt.Errorf("accept: %w", ErrPeerClosed)
		}

		syn, err := protocol.DecodeSynPayload(buf[:n])
		if err != nil {
			e.debugf("connection request without parameters, ignoring")
			continue
		}

		e.peerAddr = &net.UDPAddr{IP: append(net.IP(nil), from.IP.To4()...), Port: from.Port}
		e.peerMTU = syn.MTU

		if err := e.sendControl(protocol.FlagSYN|protocol.FlagACK, 0, e.peerAddr); err != nil {
			e.peerAddr = nil
			e.peerMTU = 0
			return err
		}

		e.connected = true
		util.Infof("connection established with %s (peer MTU %d)", e.peerAddr, e.peerMTU)
		return nil
	}
}

// Disconnect tears the association down: FIN is retransmitted until a
// FIN|ACK arrives or the budget runs out. Either way the endpoint ends
// up disconnected; an unacknowledged teardown is logged, not surfaced,
// because the peer is assumed gone.
func (e *Endpoint) Disconnect() error {
	if !e.connected {
		return fmt.Errorf("disconnect: %w", ErrNotConnected)
	}

	peer := e.peerAddr
	defer func() {
		e.connected = false
		e.peerAddr = nil
		e.peerMTU = 0
	}()

	buf := make([]byte, e.mtu)

	for tries := 0; tries < e.maxRetries; tries++ {
		if tries > 0 {
			e.counters.Retransmissions.Add(1)
		}
		if err := e.sendControl(protocol.FlagFIN, 0, peer); err != nil {
			return err
		}

		n, from, err := e.conn.RecvFromTimeout(buf, e.timeout)
		if errors.Is(err, transport.ErrTimeout) {
			e.debugf("teardown timeout, retrying (%d/%d)", tries+1, e.maxRetries)
			continue
		}
		if err != nil {
			return fmt.Errorf("receive teardown reply: %w", err)
		}

		e.counters.PacketsReceived.Add(1)
		e.counters.WireBytesReceived.Add(int64(n))

		if !e.checkSource(from) {
			tries--
			continue
		}

		switch e.checkPacket(buf[:n], protocol.FlagFIN|protocol.FlagACK) {
		case verdictDrop:
			e.debugf("invalid teardown reply, retrying (%d/%d)", tries+1, e.maxRetries)
			continue
		case verdictAccept, verdictPeerClosed:
			// FIN|ACK. checkPacket does not return verdictPeerClosed for
			// this mask: a lone FIN from a peer tearing down at the same
			// time is dropped as a flag mismatch and retried.
			util.Infof("connection closed with %s", peer)
			return nil
		}
	}

	util.Warnf("no teardown acknowledgement from %s, assuming the connection is closed", peer)
	return nil
}
