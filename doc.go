// Package rudp implements a connection-oriented, reliable, in-order byte
// message transport on top of UDP datagrams.
//
// A server endpoint binds a local port and accepts a single peer; a client
// endpoint dials a remote address. Once associated, either side can
// exchange arbitrarily large buffers with guaranteed delivery, integrity
// and ordering, and gracefully tear the association down. Transmission is
// strictly stop-and-wait: one segment in flight, acknowledged before the
// next is sent.
//
// An Endpoint is single-threaded by design. Every call runs to completion
// on the calling goroutine and must not be issued concurrently with
// another call on the same endpoint. Both peers calling Send at the same
// time without a matching Recv will starve each other into retry
// exhaustion; alternating send and receive is an application contract.
package rudp
