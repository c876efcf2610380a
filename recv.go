package rudp

import (
	"errors"
	"fmt"

	"github.com/rudpnet/rudp/internal/protocol"
	"github.com/rudpnet/rudp/internal/transport"
)

// Recv reassembles one message sent by the peer into buf and returns the
// message's payload size. Payload beyond the buffer's capacity is
// silently truncated while the returned count keeps growing, so a result
// larger than len(buf) tells the caller the message was cut.
//
// A return of (0, nil) means the peer closed the association; subsequent
// calls fail until a new handshake completes.
func (e *Endpoint) Recv(buf []byte) (int, error) {
	if !e.connected {
		return 0, fmt.Errorf("recv: %w", ErrNotConnected)
	}

	seg := e.segmentSize()
	pkt := make([]byte, e.mtu)

	// The first segment is awaited without a timeout: the peer decides
	// when it has something to say.
	var (
		hdr protocol.Header
		n   int
	)
	accepted := false
	for tries := 0; tries < e.maxRetries && !accepted; tries++ {
		nr, from, err := e.conn.RecvFrom(pkt)
		if err != nil {
			return 0, fmt.Errorf("receive first segment: %w", err)
		}

		e.counters.PacketsReceived.Add(1)
		e.counters.WireBytesReceived.Add(int64(nr))

		if !e.checkSource(from) {
			tries--
			continue
		}

		switch e.checkPacket(pkt[:nr], protocol.FlagPSH) {
		case verdictDrop:
			e.debugf("invalid first segment, retrying (%d/%d)", tries+1, e.maxRetries)
			continue
		case verdictPeerClosed:
			return 0, nil
		}

		var derr error
		hdr, derr = protocol.DecodeHeader(pkt[:nr])
		if derr != nil {
			continue
		}
		n = nr
		accepted = true
	}
	if !accepted {
		return 0, fmt.Errorf("receive first segment: %w", ErrRetriesExceeded)
	}

	copySegment(buf, pkt[:n], int(hdr.SeqNum)*seg, int(hdr.Length))

	if err := e.sendControl(protocol.FlagACK, hdr.SeqNum, e.peerAddr); err != nil {
		return 0, err
	}

	prevSeq := hdr.SeqNum
	total := int(hdr.Length)

	if hdr.Flags&protocol.FlagLAST != 0 || total > len(buf) {
		return e.finishRecv(total), nil
	}

	for {
		got := false
		for tries := 0; tries < e.maxRetries && !got; tries++ {
			nr, from, err := e.conn.RecvFromTimeout(pkt, e.timeout)
			if errors.Is(err, transport.ErrTimeout) {
				e.debugf("waiting for segment %d, retrying (%d/%d)", prevSeq+1, tries+1, e.maxRetries)
				continue
			}
			if err != nil {
				return total, fmt.Errorf("receive segment %d: %w", prevSeq+1, err)
			}

			// Overhead accounting includes packets that fail validation.
			e.counters.PacketsReceived.Add(1)
			e.counters.WireBytesReceived.Add(int64(nr))

			if !e.checkSource(from) {
				tries--
				continue
			}

			switch e.checkPacket(pkt[:nr], protocol.FlagPSH) {
			case verdictDrop:
				e.debugf("invalid segment, retrying (%d/%d)", tries+1, e.maxRetries)
				continue
			case verdictPeerClosed:
				return 0, nil
			}

			n = nr
			got = true
		}
		if !got {
			return total, fmt.Errorf("receive segment %d: %w", prevSeq+1, ErrRetriesExceeded)
		}

		hdr, _ = protocol.DecodeHeader(pkt[:n])

		if hdr.SeqNum == prevSeq {
			// The peer retransmitted a segment whose ACK got lost.
			e.counters.DuplicateSegments.Add(1)
			e.debugf("duplicate segment %d, re-acknowledging", hdr.SeqNum)
			if err := e.sendControl(protocol.FlagACK, prevSeq, e.peerAddr); err != nil {
				return total, err
			}
			continue
		}

		if hdr.SeqNum != prevSeq+1 {
			e.debugf("out-of-order segment %d (expected %d), re-acknowledging %d", hdr.SeqNum, prevSeq+1, prevSeq)
			if err := e.sendControl(protocol.FlagACK, prevSeq, e.peerAddr); err != nil {
				return total, err
			}
			continue
		}

		copySegment(buf, pkt[:n], int(hdr.SeqNum)*seg, int(hdr.Length))

		if err := e.sendControl(protocol.FlagACK, hdr.SeqNum, e.peerAddr); err != nil {
			return total, err
		}

		prevSeq = hdr.SeqNum
		total += int(hdr.Length)

		if hdr.Flags&protocol.FlagLAST != 0 || total > len(buf) {
			return e.finishRecv(total), nil
		}
	}
}

// copySegment writes a segment's payload into the user buffer at its
// sequence offset, clipping at the buffer's capacity. Payload that does
// not fit is discarded; the caller keeps counting it so truncation stays
// visible in the return value.
func copySegment(buf, pkt []byte, offset, length int) {
	if offset >= len(buf) {
		return
	}
	if offset+length > len(buf) {
		length = len(buf) - offset
	}
	copy(buf[offset:offset+length], pkt[protocol.HeaderSize:protocol.HeaderSize+length])
}

func (e *Endpoint) finishRecv(total int) int {
	e.counters.BytesReceived.Add(int64(total))
	e.counters.MessagesReceived.Add(1)
	e.debugf("received %d payload bytes", total)
	return total
}
