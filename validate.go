package rudp

import (
	"net"

	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/util"
)

// verdict is the outcome of validating a received datagram.
type verdict int

const (
	// verdictDrop: malformed or unexpected packet, silently ignored.
	verdictDrop verdict = iota

	// verdictAccept: the packet is intact and matches the expectation.
	verdictAccept

	// verdictPeerClosed: the peer sent FIN outside of a teardown we
	// initiated; the association is gone.
	verdictPeerClosed
)

// checkPacket validates a received datagram against an expected flag
// mask. The checks run in a fixed order: size, checksum, length field,
// peer-initiated FIN, flag mismatch. A lone FIN while connected is
// answered with FIN|ACK and disconnects the endpoint.
func (e *Endpoint) checkPacket(pkt []byte, expected uint8) verdict {
	if len(pkt) < protocol.HeaderSize {
		e.debugf("packet too small: %d bytes, minimum is %d", len(pkt), protocol.HeaderSize)
		return verdictDrop
	}

	if !protocol.VerifyChecksum(pkt) {
		e.debugf("checksum mismatch, dropping packet")
		return verdictDrop
	}

	hdr, err := protocol.DecodeHeader(pkt)
	if err != nil {
		return verdictDrop
	}

	if int(hdr.Length) != len(pkt)-protocol.HeaderSize {
		e.debugf("length mismatch: header says %d, datagram carries %d", hdr.Length, len(pkt)-protocol.HeaderSize)
		return verdictDrop
	}

	if hdr.Flags == protocol.FlagFIN &&
		expected != protocol.FlagFIN && expected != protocol.FlagFIN|protocol.FlagACK {
		if !e.connected {
			if expected == protocol.FlagSYN|protocol.FlagACK {
				// FIN in answer to our SYN: the peer rejected us.
				return verdictPeerClosed
			}
			e.debugf("disconnection request without an active connection, dropping")
			return verdictDrop
		}

		e.debugf("peer %s requested disconnection, acknowledging", e.peerAddr)
		if err := e.sendControl(protocol.FlagFIN|protocol.FlagACK, 0, e.peerAddr); err != nil {
			util.Warnf("acknowledge peer teardown: %v", err)
		}
		e.connected = false
		return verdictPeerClosed
	}

	if expected != 0 && hdr.Flags != expected &&
		hdr.Flags&(protocol.FlagLAST|protocol.FlagPSH) == 0 {
		e.debugf("flags mismatch: expected 0x%02x, got 0x%02x", expected, hdr.Flags)
		return verdictDrop
	}

	return verdictAccept
}

// checkSource reports whether a datagram came from the connected peer.
// A stray sender is answered with a lone FIN and its datagram is treated
// as if it never arrived; callers must not charge it to a retry budget.
func (e *Endpoint) checkSource(from *net.UDPAddr) bool {
	if sameAddr(from, e.peerAddr) {
		return true
	}

	e.counters.StrayPackets.Add(1)
	e.debugf("datagram from stray sender %s, rejecting", from)
	if err := e.sendControl(protocol.FlagFIN, 0, from); err != nil {
		util.Warnf("reject stray sender %s: %v", from, err)
	}
	return false
}

func sameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Port == b.Port && a.IP.To4().Equal(b.IP.To4())
}
