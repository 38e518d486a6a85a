package handles

import "fmt"

// PactHandle identifies a pact document in the registry. Zero never refers
// to a document.
type PactHandle uint16

// InteractionHandle packs the owning pact handle into the upper 16 bits and
// the one based interaction index into the lower 16 bits. An index of zero
// means the interaction was never created.
type InteractionHandle uint32

// MessagePactHandle and MessageHandle are the message pact equivalents. They
// share the registry with PactHandle and use the same bit layout.
type (
	MessagePactHandle uint16
	MessageHandle     uint32
)

func NewInteractionHandle(pact PactHandle, index uint16) InteractionHandle {
	return InteractionHandle(uint32(pact)<<16 | uint32(index))
}

func (h InteractionHandle) Decompose() (PactHandle, uint16) {
	return PactHandle(h >> 16), uint16(h & 0xFFFF)
}

func (h InteractionHandle) Pact() PactHandle {
	pact, _ := h.Decompose()
	return pact
}

func (h InteractionHandle) Index() uint16 {
	_, index := h.Decompose()
	return index
}

func (h InteractionHandle) IsSentinel() bool {
	return h.Index() == 0
}

func (h InteractionHandle) String() string {
	return fmt.Sprintf("%#x", uint32(h))
}

func NewMessageHandle(pact MessagePactHandle, index uint16) MessageHandle {
	return MessageHandle(NewInteractionHandle(PactHandle(pact), index))
}

func (h MessageHandle) Decompose() (MessagePactHandle, uint16) {
	pact, index := InteractionHandle(h).Decompose()
	return MessagePactHandle(pact), index
}

func (h MessageHandle) IsSentinel() bool {
	return InteractionHandle(h).IsSentinel()
}

func (h MessageHandle) String() string {
	return InteractionHandle(h).String()
}
