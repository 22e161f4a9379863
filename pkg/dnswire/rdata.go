package dnswire

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strconv"
)

// RData is the type-specific payload of a resource record. The concrete
// types are *A, *AAAA, *CNAME and *Unknown; every record decodes to exactly
// one of them.
type RData interface {
	// String renders the payload in presentation format.
	String() string

	rdata()
}

// A is an IPv4 host address.
type A struct {
	Addr netip.Addr
}

func (*A) rdata() {}

func (r *A) String() string { return r.Addr.String() }

// AAAA is an IPv6 host address.
type AAAA struct {
	Addr netip.Addr
}

func (*AAAA) rdata() {}

// String returns the RFC 5952 form. IPv4-mapped addresses keep their
// "::ffff:a.b.c.d" form.
func (r *AAAA) String() string { return r.Addr.String() }

// CNAME is the canonical name of an alias.
type CNAME struct {
	Target string
}

func (*CNAME) rdata() {}

func (r *CNAME) String() string { return r.Target }

// Unknown holds the raw payload of any type without a dedicated decoder.
type Unknown struct {
	Type Type
	Raw  []byte
}

func (*Unknown) rdata() {}

// String uses the generic encoding of RFC 3597, e.g. `\# 2 abcd`.
func (r *Unknown) String() string {
	if len(r.Raw) == 0 {
		return `\# 0`
	}
	return `\# ` + strconv.Itoa(len(r.Raw)) + " " + hex.EncodeToString(r.Raw)
}

// rdataDecoder decodes the payload found at msg[off:end]. It receives the
// whole message so names may follow compression pointers to earlier data.
type rdataDecoder func(msg []byte, off, end int) (RData, error)

var rdataDecoders = map[Type]rdataDecoder{
	TypeA:     decodeA,
	TypeAAAA:  decodeAAAA,
	TypeCNAME: decodeCNAME,
}

func decodeRData(t Type, msg []byte, off, end int) (RData, error) {
	if dec, ok := rdataDecoders[t]; ok {
		return dec(msg, off, end)
	}
	raw := make([]byte, end-off)
	copy(raw, msg[off:end])
	return &Unknown{Type: t, Raw: raw}, nil
}

func decodeA(msg []byte, off, end int) (RData, error) {
	if end-off != 4 {
		return nil, fmt.Errorf("%w: A needs 4 octets, got %d", errRDataLen, end-off)
	}
	return &A{Addr: netip.AddrFrom4([4]byte(msg[off:end]))}, nil
}

func decodeAAAA(msg []byte, off, end int) (RData, error) {
	if end-off != 16 {
		return nil, fmt.Errorf("%w: AAAA needs 16 octets, got %d", errRDataLen, end-off)
	}
	return &AAAA{Addr: netip.AddrFrom16([16]byte(msg[off:end]))}, nil
}

func decodeCNAME(msg []byte, off, end int) (RData, error) {
	// Bounding msg at end keeps the name inside its rdata; pointers can
	// only reach backwards, which is still within msg[:end].
	target, next, err := DecodeName(msg[:end], off)
	if err != nil {
		return nil, err
	}
	if next != end {
		return nil, fmt.Errorf("%w: CNAME name ends at %d, rdata at %d", errRDataLen, next, end)
	}
	return &CNAME{Target: target}, nil
}
