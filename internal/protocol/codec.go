package protocol

import (
	"encoding/binary"
	"fmt"
)

// EncodeControl serializes a control packet (SYN, SYN|ACK, ACK, FIN,
// FIN|ACK) with the given sequence number. When flags carries FlagSYN the
// parameter payload is appended and the length field is set accordingly;
// otherwise the packet is a bare header with length 0. The checksum is
// computed last, over the final packet bytes.
func EncodeControl(flags uint8, seqNum uint32, syn *SynPayload) []byte {
	size := HeaderSize
	if flags&FlagSYN != 0 {
		size += SynPayloadSize
	}

	pkt := make([]byte, size)
	binary.BigEndian.PutUint32(pkt[0:4], seqNum)
	pkt[8] = flags

	if flags&FlagSYN != 0 {
		binary.BigEndian.PutUint16(pkt[4:6], SynPayloadSize)
		binary.BigEndian.PutUint16(pkt[HeaderSize:], syn.MTU)
		binary.BigEndian.PutUint16(pkt[HeaderSize+2:], syn.TimeoutMs)
		binary.BigEndian.PutUint16(pkt[HeaderSize+4:], syn.MaxRetries)
		binary.BigEndian.PutUint16(pkt[HeaderSize+6:], syn.Debug)
	}

	FillChecksum(pkt)
	return pkt
}

// EncodeData serializes a data segment: flags PSH, plus LAST when this is
// the final segment of the message. seqNum is the segment index.
func EncodeData(seqNum uint32, payload []byte, last bool) []byte {
	flags := FlagPSH
	if last {
		flags |= FlagLAST
	}

	pkt := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(pkt[0:4], seqNum)
	binary.BigEndian.PutUint16(pkt[4:6], uint16(len(payload)))
	pkt[8] = flags
	copy(pkt[HeaderSize:], payload)

	FillChecksum(pkt)
	return pkt
}

// DecodeHeader reads the fixed header from the front of pkt.
func DecodeHeader(pkt []byte) (Header, error) {
	if len(pkt) < HeaderSize {
		return Header{}, fmt.Errorf("packet too short: %d bytes (need at least %d)", len(pkt), HeaderSize)
	}

	return Header{
		SeqNum:   binary.BigEndian.Uint32(pkt[0:4]),
		Length:   binary.BigEndian.Uint16(pkt[4:6]),
		Checksum: binary.BigEndian.Uint16(pkt[6:8]),
		Flags:    pkt[8],
	}, nil
}

// DecodeSynPayload reads the parameter payload that follows the header of
// a SYN or SYN|ACK packet.
func DecodeSynPayload(pkt []byte) (SynPayload, error) {
	if len(pkt) < HeaderSize+SynPayloadSize {
		return SynPayload{}, fmt.Errorf("packet too short for SYN payload: %d bytes", len(pkt))
	}

	return SynPayload{
		MTU:        binary.BigEndian.Uint16(pkt[HeaderSize:]),
		TimeoutMs:  binary.BigEndian.Uint16(pkt[HeaderSize+2:]),
		MaxRetries: binary.BigEndian.Uint16(pkt[HeaderSize+4:]),
		Debug:      binary.BigEndian.Uint16(pkt[HeaderSize+6:]),
	}, nil
}
