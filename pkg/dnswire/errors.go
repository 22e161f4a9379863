package dnswire

import "errors"

var (
	// ErrUnsupportedType is returned when a record type mnemonic is not in
	// the registry.
	ErrUnsupportedType = errors.New("dnswire: unsupported record type")

	// ErrInvalidName is returned when a name cannot be encoded.
	ErrInvalidName = errors.New("dnswire: invalid name")

	// ErrMalformedName is returned when a wire-format name cannot be decoded.
	ErrMalformedName = errors.New("dnswire: malformed name")

	// ErrMalformedMessage is returned when a wire-format message cannot be
	// decoded. Name errors found while decoding a message wrap both this and
	// ErrMalformedName.
	ErrMalformedMessage = errors.New("dnswire: malformed message")
)

var (
	errEmptyLabel    = errors.New("empty label")
	errLabelTooLong  = errors.New("label longer than 63 octets")
	errNameTooLong   = errors.New("name longer than 255 octets")
	errBadChar       = errors.New("disallowed character")
	errShortBuffer   = errors.New("insufficient data")
	errReserved      = errors.New("label prefix is reserved")
	errForwardPtr    = errors.New("compression pointer does not point backwards")
	errPtrLoop       = errors.New("compression pointer loop")
	errTooManyRecord = errors.New("section count exceeds message length")
	errRDataLen      = errors.New("unexpected rdata length")
)

type sectionErr struct {
	sec string
	err error
}

func (e *sectionErr) Error() string {
	return e.sec + ": " + e.err.Error()
}

func (e *sectionErr) Unwrap() error {
	return e.err
}

func newSectionErr(sec string, err error) error {
	return &sectionErr{sec: sec, err: err}
}
