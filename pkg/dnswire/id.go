package dnswire

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// IDSource supplies message IDs for outgoing queries.
//
// The ID is the only thing tying a response to its query, so production code
// should use an unpredictable source such as CryptoIDSource. With only 16
// bits this raises the cost of spoofed responses but does not prevent them.
type IDSource interface {
	ID() uint16
}

// IDSourceFunc adapts a function to IDSource.
type IDSourceFunc func() uint16

func (f IDSourceFunc) ID() uint16 { return f() }

// CryptoIDSource draws IDs from crypto/rand.
type CryptoIDSource struct{}

func (CryptoIDSource) ID() uint16 {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint16(mrand.Uint32())
	}
	return binary.BigEndian.Uint16(b[:])
}
