package dnswire

import (
	"fmt"
	"slices"
	"strings"
)

// Type is a resource record type code as registered with IANA.
type Type uint16

// Record types understood by the codec. Any other code is carried through
// as an unknown type.
const (
	TypeA     Type = 1
	TypeCNAME Type = 5
	TypeAAAA  Type = 28
)

// ClassINET is the Internet class, the only one this package produces.
const ClassINET uint16 = 1

// typeNames is the registry of supported types. Support for a new type is
// added here, plus an optional entry in rdataDecoders.
var typeNames = map[Type]string{
	TypeA:     "A",
	TypeAAAA:  "AAAA",
	TypeCNAME: "CNAME",
}

var typeCodes = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, s := range typeNames {
		m[s] = t
	}
	return m
}()

// ParseType returns the code for a mnemonic such as "aaaa". Lookup is
// case-insensitive.
func ParseType(mnemonic string) (Type, error) {
	t, ok := typeCodes[strings.ToUpper(strings.TrimSpace(mnemonic))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, mnemonic)
	}
	return t, nil
}

// IsSupported reports whether mnemonic names a supported type.
func IsSupported(mnemonic string) bool {
	_, err := ParseType(mnemonic)
	return err == nil
}

// SupportedTypes returns the supported mnemonics in lexical order.
func SupportedTypes() []string {
	names := make([]string, 0, len(typeCodes))
	for s := range typeCodes {
		names = append(names, s)
	}
	slices.Sort(names)
	return names
}

// Supported reports whether t is in the registry.
func (t Type) Supported() bool {
	_, ok := typeNames[t]
	return ok
}

// String returns the upper-case mnemonic of t, or "unknown".
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}
