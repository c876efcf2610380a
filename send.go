package rudp

import (
	"errors"
	"fmt"
	"math"

	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/transport"
)

// Send transmits buf as a sequence of stop-and-wait segments and returns
// the number of payload bytes delivered. An empty buffer still produces
// one empty segment, so the peer's Recv observes the message boundary.
//
// A return of (0, nil) means the peer closed the association mid-send;
// the endpoint is disconnected afterwards.
func (e *Endpoint) Send(buf []byte) (int, error) {
	if !e.connected {
		return 0, fmt.Errorf("send: %w", ErrNotConnected)
	}

	seg := e.segmentSize()
	numSegments := (len(buf) + seg - 1) / seg
	if numSegments == 0 {
		numSegments = 1
	}
	if uint64(numSegments) > math.MaxUint32 {
		return 0, fmt.Errorf("send %d bytes: %w", len(buf), ErrMessageTooLarge)
	}

	ackBuf := make([]byte, e.mtu)
	prevAck := uint32(math.MaxUint32)
	sent := 0

	for i := 0; i < numSegments; i++ {
		end := (i + 1) * seg
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[i*seg : end]
		last := i == numSegments-1
		pkt := protocol.EncodeData(uint32(i), chunk, last)

		acked := false
		for tries := 0; tries < e.maxRetries && !acked; tries++ {
			if tries > 0 {
				e.counters.Retransmissions.Add(1)
			}

			if err := e.conn.SendTo(pkt, e.peerAddr); err != nil {
				return sent, fmt.Errorf("send segment %d: %w", i, err)
			}
			e.counters.PacketsSent.Add(1)
			e.counters.WireBytesSent.Add(int64(len(pkt)))

			n, from, err := e.conn.RecvFromTimeout(ackBuf, e.timeout)
			if errors.Is(err, transport.ErrTimeout) {
				e.debugf("no ACK for segment %d, retrying (%d/%d)", i, tries+1, e.maxRetries)
				continue
			}
			if err != nil {
				return sent, fmt.Errorf("receive ACK for segment %d: %w", i, err)
			}

			e.counters.PacketsReceived.Add(1)
			e.counters.WireBytesReceived.Add(int64(n))

			if !e.checkSource(from) {
				tries--
				continue
			}

			switch e.checkPacket(ackBuf[:n], protocol.FlagACK) {
			case verdictDrop:
				e.debugf("invalid ACK for segment %d, retrying (%d/%d)", i, tries+1, e.maxRetries)
				continue
			case verdictPeerClosed:
				return 0, nil
			}

			hdr, err := protocol.DecodeHeader(ackBuf[:n])
			if err != nil {
				continue
			}

			switch {
			case hdr.SeqNum == prevAck && !last:
				// A spurious retransmission elsewhere already covered this
				// segment; move on without recording the ACK.
				e.counters.DuplicateAcks.Add(1)
				e.debugf("duplicate ACK %d, advancing to segment %d", hdr.SeqNum, i+1)
				acked = true
			case hdr.SeqNum < uint32(i):
				e.debugf("stale ACK %d for segment %d, retrying (%d/%d)", hdr.SeqNum, i, tries+1, e.maxRetries)
			default:
				prevAck = hdr.SeqNum
				acked = true
			}
		}

		if !acked {
			return sent, fmt.Errorf("send segment %d/%d: %w", i, numSegments, ErrRetriesExceeded)
		}
		sent += len(chunk)
	}

	e.counters.BytesSent.Add(int64(sent))
	e.counters.MessagesSent.Add(1)
	e.debugf("sent %d bytes over %d segments", sent, numSegments)
	return sent, nil
}
