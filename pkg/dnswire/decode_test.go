package dnswire

import (
	"net"
	"strings"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// compressedResponse answers www.example.com/A with a CNAME to example.com
// and an A record, both pointing back into the question.
var compressedResponse = []byte{
	0x12, 0x34, 0x81, 0x80, 0, 1, 0, 2, 0, 0, 0, 0,
	// 12: www.example.com A IN
	3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0,
	0, 1, 0, 1,
	// 33: -> www.example.com CNAME IN 300 -> example.com
	0xC0, 12, 0, 5, 0, 1, 0, 0, 0x01, 0x2C, 0, 2, 0xC0, 16,
	// 47: -> example.com A IN 3600 93.184.216.34
	0xC0, 16, 0, 1, 0, 1, 0, 0, 0x0E, 0x10, 0, 4, 93, 184, 216, 34,
}

func TestDecodeCompressedResponse(t *testing.T) {
	r := require.New(t)

	m, err := DecodeMessage(compressedResponse)
	r.NoError(err)

	r.Equal(Header{
		ID:                 0x1234,
		Response:           true,
		RecursionDesired:   true,
		RecursionAvailable: true,
		QDCount:            1,
		ANCount:            2,
	}, m.Header)
	r.Equal([]Question{{Name: "www.example.com", Type: TypeA, Class: ClassINET}}, m.Questions)

	r.Len(m.Answers, 2)
	r.Equal("www.example.com", m.Answers[0].Name)
	r.Equal(TypeCNAME, m.Answers[0].Type)
	r.Equal(uint32(300), m.Answers[0].TTL)
	r.Equal(&CNAME{Target: "example.com"}, m.Answers[0].Data)

	r.Equal("example.com", m.Answers[1].Name)
	r.Equal(uint32(3600), m.Answers[1].TTL)
	r.Equal("93.184.216.34", m.Answers[1].Data.String())

	r.NotNil(m.Authorities)
	r.Empty(m.Authorities)
	r.NotNil(m.Additionals)
	r.Empty(m.Additionals)
}

func TestDecodeRoundTrip(t *testing.T) {
	names := []string{
		"example.com",
		"a",
		"_443._tcp.Example.org",
		strings.Repeat("a", 63) + "." + strings.Repeat("b", 63),
	}

	for _, name := range names {
		for _, typ := range SupportedTypes() {
			t.Run(name+"/"+typ, func(t *testing.T) {
				r := require.New(t)
				code, err := ParseType(typ)
				r.NoError(err)

				b, err := EncodeQuery(NewQuery(fixedID(7), name, code))
				r.NoError(err)

				m, err := DecodeMessage(b)
				r.NoError(err)
				r.Equal(uint16(7), m.Header.ID)
				r.True(m.Header.RecursionDesired)
				r.Equal([]Question{{Name: name, Type: code, Class: ClassINET}}, m.Questions)
			})
		}
	}
}

func TestDecodeMiekgResponse(t *testing.T) {
	r := require.New(t)

	name := "test.example."
	m := new(dns.Msg)
	m.SetQuestion(name, dns.TypeA)
	m.Response = true
	m.Rcode = dns.RcodeNameError
	m.AuthenticatedData = true
	m.Compress = true
	m.Answer = []dns.RR{
		&dns.AAAA{Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 60}, AAAA: net.ParseIP("2001:db8::1")},
		&dns.MX{Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 60}, Preference: 10, Mx: "mail.example."},
	}
	m.Ns = []dns.RR{
		&dns.SOA{Hdr: dns.RR_Header{Name: "example.", Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: 900}, Ns: "ns.example.", Mbox: "admin.example."},
	}
	m.SetEdns0(1232, false)

	b, err := m.Pack()
	r.NoError(err)

	got, err := DecodeMessage(b)
	r.NoError(err)
	r.Equal(RCode(dns.RcodeNameError), got.Header.RCode)
	r.True(got.Header.AuthenticData)
	r.Len(got.Answers, 2)
	r.Len(got.Authorities, 1)
	r.Len(got.Additionals, 1)

	r.Equal("2001:db8::1", got.Answers[0].Data.String())

	mx, ok := got.Answers[1].Data.(*Unknown)
	r.True(ok)
	r.Equal(Type(dns.TypeMX), mx.Type)
	r.Equal("unknown", mx.Type.String())
	r.True(strings.HasPrefix(mx.String(), `\# `))

	opt := got.Additionals[0]
	r.Equal(".", opt.Name)
	r.Equal(Type(dns.TypeOPT), opt.Type)
	r.Equal(uint16(1232), opt.Class)
	r.Equal(`\# 0`, opt.Data.String())
}

func TestDecodeMalformed(t *testing.T) {
	header := func(qd, an, ns, ar byte) []byte {
		return []byte{0, 1, 0x81, 0x80, 0, qd, 0, an, 0, ns, 0, ar}
	}
	question := []byte{1, 'a', 0, 0, 1, 0, 1}
	cat := func(parts ...[]byte) []byte {
		var b []byte
		for _, p := range parts {
			b = append(b, p...)
		}
		return b
	}

	tests := []struct {
		name     string
		msg      []byte
		nameErr  bool
		contains string
	}{
		{name: "empty", msg: nil},
		{name: "short header", msg: []byte{0, 1, 0x81, 0x80, 0, 1}},
		{name: "missing question", msg: header(1, 0, 0, 0)},
		{name: "absurd answer count", msg: cat([]byte{0, 1, 0x81, 0x80, 0, 1, 0xFF, 0xFF, 0, 0, 0, 0}, question), contains: "exceeds"},
		{name: "fewer answers than declared", msg: cat(header(1, 1, 0, 0), question, []byte{0, 0, 1, 0, 1, 0, 0, 0, 0, 0})},
		{name: "self pointer in question", msg: cat(header(1, 0, 0, 0), []byte{0xC0, 12, 0, 1, 0, 1}), nameErr: true},
		{name: "pointer past buffer", msg: cat(header(1, 0, 0, 0), []byte{0xC0, 0xFF, 0, 1, 0, 1}), nameErr: true},
		{name: "truncated question class", msg: cat(header(1, 0, 0, 0), []byte{3, 'c', 'o', 'm', 0, 0, 1})},
		{
			name: "rdata past end",
			msg:  cat(header(1, 1, 0, 0), question, []byte{0xC0, 12, 0, 1, 0, 1, 0, 0, 0, 1, 0, 9, 1, 2, 3, 4}),
		},
		{
			name: "A rdata of 5 octets",
			msg:  cat(header(1, 1, 0, 0), question, []byte{0xC0, 12, 0, 1, 0, 1, 0, 0, 0, 1, 0, 5, 1, 2, 3, 4, 5}),
		},
		{
			name: "AAAA rdata of 4 octets",
			msg:  cat(header(1, 1, 0, 0), question, []byte{0xC0, 12, 0, 28, 0, 1, 0, 0, 0, 1, 0, 4, 1, 2, 3, 4}),
		},
		{
			name:    "CNAME pointing at itself",
			msg:     cat(header(1, 1, 0, 0), question, []byte{0xC0, 12, 0, 5, 0, 1, 0, 0, 0, 1, 0, 2, 0xC0, 31}),
			nameErr: true,
		},
		{
			name: "CNAME shorter than rdlength",
			msg:  cat(header(1, 1, 0, 0), question, []byte{0xC0, 12, 0, 5, 0, 1, 0, 0, 0, 1, 0, 3, 0xC0, 12, 0}),
		},
		{
			name:    "CNAME name overruns rdlength",
			msg:     cat(header(1, 1, 0, 0), question, []byte{0xC0, 12, 0, 5, 0, 1, 0, 0, 0, 1, 0, 2, 3, 'c', 'o', 'm', 0}),
			nameErr: true,
		},
		{
			name:    "authority name loop",
			msg:     cat(header(1, 0, 1, 0), question, []byte{1, 'b', 0xC0, 19, 0, 1, 0, 1, 0, 0, 0, 1, 0, 0}),
			nameErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := require.New(t)
			m, err := DecodeMessage(test.msg)
			r.Nil(m)
			r.ErrorIs(err, ErrMalformedMessage)
			if test.nameErr {
				r.ErrorIs(err, ErrMalformedName)
			}
			if test.contains != "" {
				r.ErrorContains(err, test.contains)
			}
		})
	}
}

func FuzzDecodeMessage(f *testing.F) {
	f.Add(compressedResponse)
	f.Add([]byte{0, 1, 0x81, 0x80, 0, 1, 0, 0, 0, 0, 0, 0, 0xC0, 12, 0, 1, 0, 1})
	if q, err := EncodeQuery(NewQuery(fixedID(1), "example.com", TypeA)); err == nil {
		f.Add(q)
	}

	f.Fuzz(func(t *testing.T, b []byte) {
		m, err := DecodeMessage(b)
		if err != nil {
			if m != nil {
				t.Fatal("partial message returned with error")
			}
			return
		}
		if len(m.Questions) != int(m.Header.QDCount) ||
			len(m.Answers) != int(m.Header.ANCount) ||
			len(m.Authorities) != int(m.Header.NSCount) ||
			len(m.Additionals) != int(m.Header.ARCount) {
			t.Fatalf("section sizes do not match header: %+v", m.Header)
		}
		for _, rs := range [][]Resource{m.Answers, m.Authorities, m.Additionals} {
			for _, rr := range rs {
				_ = rr.Data.String()
			}
		}
	})
}
