package dnswire

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

const (
	minQuestionLen = 1 + 4         // root name, type, class
	minResourceLen = 1 + 4 + 4 + 2 // root name, type, class, ttl, rdlength
)

// DecodeMessage parses a complete DNS message. Any structural problem fails
// the whole decode with an error wrapping ErrMalformedMessage.
func DecodeMessage(b []byte) (*Message, error) {
	d := decoder{msg: b, s: cryptobyte.String(b)}
	m, err := d.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return m, nil
}

type decoder struct {
	msg []byte
	s   cryptobyte.String // unread remainder of msg
}

func (d *decoder) off() int {
	return len(d.msg) - len(d.s)
}

func (d *decoder) decode() (*Message, error) {
	var (
		h    Header
		bits uint16
	)
	if !d.s.ReadUint16(&h.ID) ||
		!d.s.ReadUint16(&bits) ||
		!d.s.ReadUint16(&h.QDCount) ||
		!d.s.ReadUint16(&h.ANCount) ||
		!d.s.ReadUint16(&h.NSCount) ||
		!d.s.ReadUint16(&h.ARCount) {
		return nil, newSectionErr("header", errShortBuffer)
	}
	h.setBits(bits)

	// Reject counts the remaining octets cannot possibly hold before
	// allocating anything for them.
	need := int(h.QDCount)*minQuestionLen +
		(int(h.ANCount)+int(h.NSCount)+int(h.ARCount))*minResourceLen
	if need > len(d.s) {
		return nil, newSectionErr("header", errTooManyRecord)
	}

	m := &Message{
		Header:    h,
		Questions: make([]Question, 0, h.QDCount),
	}
	for i := 0; i < int(h.QDCount); i++ {
		q, err := d.question()
		if err != nil {
			return nil, newSectionErr("question", err)
		}
		m.Questions = append(m.Questions, q)
	}

	var err error
	if m.Answers, err = d.resources(h.ANCount); err != nil {
		return nil, newSectionErr("answer", err)
	}
	if m.Authorities, err = d.resources(h.NSCount); err != nil {
		return nil, newSectionErr("authority", err)
	}
	if m.Additionals, err = d.resources(h.ARCount); err != nil {
		return nil, newSectionErr("additional", err)
	}
	return m, nil
}

func (d *decoder) name() (string, error) {
	off := d.off()
	name, next, err := DecodeName(d.msg, off)
	if err != nil {
		return "", newSectionErr("name", err)
	}
	d.s.Skip(next - off)
	return name, nil
}

func (d *decoder) question() (Question, error) {
	var (
		q   Question
		typ uint16
		err error
	)
	if q.Name, err = d.name(); err != nil {
		return q, err
	}
	if !d.s.ReadUint16(&typ) || !d.s.ReadUint16(&q.Class) {
		return q, errShortBuffer
	}
	q.Type = Type(typ)
	return q, nil
}

func (d *decoder) resources(n uint16) ([]Resource, error) {
	rs := make([]Resource, 0, n)
	for i := 0; i < int(n); i++ {
		r, err := d.resource()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (d *decoder) resource() (Resource, error) {
	var (
		r     Resource
		typ   uint16
		rdLen uint16
		err   error
	)
	if r.Name, err = d.name(); err != nil {
		return r, err
	}
	if !d.s.ReadUint16(&typ) ||
		!d.s.ReadUint16(&r.Class) ||
		!d.s.ReadUint32(&r.TTL) ||
		!d.s.ReadUint16(&rdLen) {
		return r, errShortBuffer
	}
	r.Type = Type(typ)

	off := d.off()
	end := off + int(rdLen)
	if end > len(d.msg) {
		return r, newSectionErr("rdata", errShortBuffer)
	}
	if r.Data, err = decodeRData(r.Type, d.msg, off, end); err != nil {
		return r, newSectionErr("rdata", err)
	}
	d.s.Skip(int(rdLen))
	return r, nil
}
