package dnswire

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Flags are the header bits a query may request.
type Flags uint16

const (
	FlagRD Flags = headerBitRD // recursion desired
	FlagAD Flags = headerBitAD // authentic data understood
	FlagCD Flags = headerBitCD // checking disabled

	queryFlagsMask = FlagRD | FlagAD | FlagCD
)

// Query describes a single-question query message.
type Query struct {
	ID    uint16
	Name  string
	Type  Type
	Class uint16 // zero means ClassINET
	Flags Flags
}

// NewQuery returns a recursive query for name and t, with its ID taken
// from ids.
func NewQuery(ids IDSource, name string, t Type) Query {
	return Query{
		ID:    ids.ID(),
		Name:  name,
		Type:  t,
		Class: ClassINET,
		Flags: FlagRD,
	}
}

// EncodeQuery returns the wire form of q: a header with QDCOUNT=1 followed by
// one question.
func EncodeQuery(q Query) ([]byte, error) {
	if !q.Type.Supported() {
		return nil, fmt.Errorf("%w: code %d", ErrUnsupportedType, uint16(q.Type))
	}
	name, err := EncodeName(q.Name)
	if err != nil {
		return nil, err
	}
	class := q.Class
	if class == 0 {
		class = ClassINET
	}

	b := cryptobyte.NewBuilder(make([]byte, 0, headerLen+len(name)+4))
	b.AddUint16(q.ID)
	b.AddUint16(uint16(q.Flags & queryFlagsMask))
	b.AddUint16(1) // QDCOUNT
	b.AddUint16(0) // ANCOUNT
	b.AddUint16(0) // NSCOUNT
	b.AddUint16(0) // ARCOUNT
	b.AddBytes(name)
	b.AddUint16(uint16(q.Type))
	b.AddUint16(class)
	return b.Bytes()
}
