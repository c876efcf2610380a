// Package protocol defines the wire format of the reliable datagram
// protocol: the fixed 12-byte header, its flag bits, the 8-byte SYN
// parameter payload, and the packet checksum.
package protocol

// Flag bits carried in the header's Flags field.
const (
	FlagSYN  uint8 = 0x01 // connection is being established
	FlagACK  uint8 = 0x02 // acknowledgement of data
	FlagPSH  uint8 = 0x04 // data is pushed to the application
	FlagLAST uint8 = 0x08 // last segment of the message
	FlagFIN  uint8 = 0x10 // connection is closing
)

// HeaderSize is the fixed header size: SeqNum(4) + Length(2) + Checksum(2) +
// Flags(1) + reserved(3).
const HeaderSize = 12

// SynPayloadSize is the size of the parameter payload appended to packets
// carrying the SYN flag: four big-endian uint16 fields.
const SynPayloadSize = 8

// MinMTU is the smallest usable MTU. A datagram must be able to carry a
// full header plus a SYN parameter payload.
const MinMTU = HeaderSize + SynPayloadSize

// MinTimeoutMs is the smallest accepted per-round-trip wait, in milliseconds.
const MinTimeoutMs = 10

// Protocol defaults.
const (
	DefaultMTU        = 1458
	DefaultTimeoutMs  = 100
	DefaultMaxRetries = 50
)

// Header is the decoded form of the 12-byte packet header. The three
// reserved trailing bytes are zero on transmit and ignored on receive.
type Header struct {
	SeqNum   uint32 // segment index, starting at 0 per message
	Length   uint16 // payload bytes following the header
	Checksum uint16 // one's-complement checksum over the entire packet
	Flags    uint8
}

// SynPayload carries the connection parameters exchanged during the
// handshake. Each field travels as a big-endian uint16.
type SynPayload struct {
	MTU        uint16
	TimeoutMs  uint16
	MaxRetries uint16
	Debug      uint16
}
