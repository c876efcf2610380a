package rudp

import "errors"

var (
	// ErrNotConnected is returned by operations that require an active
	// association.
	ErrNotConnected = errors.New("rudp: not connected")

	// ErrAlreadyConnected is returned by Connect and Accept while an
	// association is active, and by setters that are only legal before
	// the handshake.
	ErrAlreadyConnected = errors.New("rudp: already connected")

	// ErrRole is returned when Connect is called on a server endpoint or
	// Accept on a client endpoint.
	ErrRole = errors.New("rudp: operation not valid for this role")

	// ErrRetriesExceeded is returned when the retry budget for a
	// handshake, teardown or segment acknowledgement runs out.
	ErrRetriesExceeded = errors.New("rudp: maximum number of retries reached")

	// ErrConnectionRefused is returned by Connect when the peer answers
	// the handshake with FIN.
	ErrConnectionRefused = errors.New("rudp: connection refused by peer")

	// ErrPeerClosed is returned by Accept when the handshake is aborted
	// by a peer teardown.
	ErrPeerClosed = errors.New("rudp: connection closed by peer")

	// ErrMTUTooSmall is returned for MTU values below MinMTU.
	ErrMTUTooSmall = errors.New("rudp: MTU below protocol minimum")

	// ErrTimeoutTooSmall is returned for timeouts below MinTimeout.
	ErrTimeoutTooSmall = errors.New("rudp: timeout below protocol minimum")

	// ErrTimeoutTooLarge is returned for timeouts that do not fit the
	// 16-bit millisecond field of the handshake payload.
	ErrTimeoutTooLarge = errors.New("rudp: timeout exceeds protocol maximum")

	// ErrZeroRetries is returned when the retry budget is set below 1 or
	// above 65535, the largest value the handshake payload can carry.
	ErrZeroRetries = errors.New("rudp: retry budget must be at least 1")

	// ErrMessageTooLarge is returned by Send for buffers that would need
	// more segments than the 32-bit sequence space holds.
	ErrMessageTooLarge = errors.New("rudp: message exceeds sequence space")
)
