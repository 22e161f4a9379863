package dnswire

import (
	"fmt"
	"strings"
)

const (
	maxLabelLen = 63
	maxNameLen  = 255
)

// EncodeName returns the wire form of name, terminated by the root label.
func EncodeName(name string) ([]byte, error) {
	return AppendName(nil, name)
}

// AppendName appends the wire form of name to b.
//
// A single trailing dot is accepted and "." is the root. Labels must be
// 1 to 63 octets of letters, digits, '-' or '_', and the encoded name must not
// exceed 255 octets. Escapes are not supported.
func AppendName(b []byte, name string) ([]byte, error) {
	if name == "." {
		return append(b, 0), nil
	}
	orig := b
	s := strings.TrimSuffix(name, ".")
	if len(s) == 0 {
		return orig, invalidName(name, errEmptyLabel)
	}
	// Every dot becomes a length octet, plus the leading length and the
	// terminator.
	if len(s)+2 > maxNameLen {
		return orig, invalidName(name, errNameTooLong)
	}

	for len(s) > 0 {
		label, rest, found := strings.Cut(s, ".")
		if len(label) == 0 || (found && len(rest) == 0) {
			return orig, invalidName(name, errEmptyLabel)
		}
		if len(label) > maxLabelLen {
			return orig, invalidName(name, errLabelTooLong)
		}
		for i := 0; i < len(label); i++ {
			if !isHostChar(label[i]) {
				return orig, invalidName(name, errBadChar)
			}
		}
		b = append(b, byte(len(label)))
		b = append(b, label...)
		s = rest
	}
	return append(b, 0), nil
}

func invalidName(name string, err error) error {
	return fmt.Errorf("%w %q: %w", ErrInvalidName, name, err)
}

func isHostChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// DecodeName reads the name starting at off in msg and returns it in dotted
// form without a trailing dot ("." for the root), along with the offset just
// past the name in the caller's stream.
//
// Compression pointers must point strictly before their own position and each
// target is followed at most once per name, so decoding always terminates.
// Octets outside the printable ASCII range, '.' and '\' are escaped.
func DecodeName(msg []byte, off int) (string, int, error) {
	var (
		name    []byte
		wireLen int
		cur     = off
		next    = -1
		visited map[int]struct{}
	)

	for {
		if cur < 0 || cur >= len(msg) {
			return "", off, malformedName(errShortBuffer)
		}
		c := int(msg[cur])

		switch c & 0xC0 {
		case 0x00:
			if c == 0 {
				cur++
				if next < 0 {
					next = cur
				}
				if len(name) == 0 {
					return ".", next, nil
				}
				return string(name), next, nil
			}
			end := cur + 1 + c
			if end > len(msg) {
				return "", off, malformedName(errShortBuffer)
			}
			// +1 for the terminator still to come.
			if wireLen += 1 + c; wireLen+1 > maxNameLen {
				return "", off, malformedName(errNameTooLong)
			}
			if len(name) > 0 {
				name = append(name, '.')
			}
			name = appendEscapedLabel(name, msg[cur+1:end])
			cur = end

		case 0xC0:
			if cur+1 >= len(msg) {
				return "", off, malformedName(errShortBuffer)
			}
			ptr := (c&0x3F)<<8 | int(msg[cur+1])
			if ptr >= len(msg) {
				return "", off, malformedName(errShortBuffer)
			}
			if ptr >= cur {
				return "", off, malformedName(errForwardPtr)
			}
			if _, dup := visited[ptr]; dup {
				return "", off, malformedName(errPtrLoop)
			}
			if visited == nil {
				visited = make(map[int]struct{}, 4)
			}
			visited[ptr] = struct{}{}
			if next < 0 {
				next = cur + 2
			}
			cur = ptr

		default:
			return "", off, malformedName(errReserved)
		}
	}
}

func malformedName(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedName, err)
}

func appendEscapedLabel(dst, label []byte) []byte {
	for _, c := range label {
		switch {
		case c == '.' || c == '\\':
			dst = append(dst, '\\', c)
		case c < 0x21 || c > 0x7E:
			dst = append(dst, '\\', '0'+c/100, '0'+c/10%10, '0'+c%10)
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
