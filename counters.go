package rudp

import "sync/atomic"

// Counters holds an endpoint's cumulative transfer statistics. Payload
// fields count application bytes and whole messages; wire fields count
// every datagram that touched the socket, retransmissions and invalid
// packets included, so the difference is the protocol overhead. All
// fields are atomics so a reporter goroutine can read them while the
// endpoint works.
type Counters struct {
	BytesSent        atomic.Int64 // application payload bytes sent
	BytesReceived    atomic.Int64 // application payload bytes received
	MessagesSent     atomic.Int64
	MessagesReceived atomic.Int64

	WireBytesSent     atomic.Int64 // datagram bytes out, headers and retries included
	WireBytesReceived atomic.Int64 // datagram bytes in, drops included
	PacketsSent       atomic.Int64
	PacketsReceived   atomic.Int64

	Retransmissions   atomic.Int64 // data or control packets sent more than once
	DuplicateSegments atomic.Int64 // data segments received twice
	DuplicateAcks     atomic.Int64 // acknowledgements received twice
	StrayPackets      atomic.Int64 // datagrams rejected by the source check
}
