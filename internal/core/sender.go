package core

// Frame is one encoded signaling message on the wire.
type Frame []byte

// Sender abstracts the outbound half of a client's duplex channel.
// Owned by the adapter; the adapter must Close() it. TrySend never blocks:
// delivery is best effort and a full buffer drops the frame.
type Sender interface {
	TrySend(Frame) error
	Close()
}
