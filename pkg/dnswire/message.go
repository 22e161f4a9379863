package dnswire

// OpCode is the kind of query carried by a message.
type OpCode uint8

// RCode is the response code of a message. 0 is NOERROR.
type RCode uint8

const (
	headerBitQR = 1 << 15 // query/response (response=1)
	headerBitAA = 1 << 10 // authoritative
	headerBitTC = 1 << 9  // truncated
	headerBitRD = 1 << 8  // recursion desired
	headerBitRA = 1 << 7  // recursion available
	headerBitZ  = 1 << 6  // reserved
	headerBitAD = 1 << 5  // authentic data
	headerBitCD = 1 << 4  // checking disabled
)

const headerLen = 12

// Header is a decoded DNS message header. The counts are those declared on
// the wire; a decoded Message always holds exactly that many entries.
type Header struct {
	ID                 uint16
	Response           bool
	OpCode             OpCode
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	Zero               bool
	AuthenticData      bool
	CheckingDisabled   bool
	RCode              RCode

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func (h *Header) setBits(bits uint16) {
	h.Response = bits&headerBitQR != 0
	h.OpCode = OpCode(bits>>11) & 0xF
	h.Authoritative = bits&headerBitAA != 0
	h.Truncated = bits&headerBitTC != 0
	h.RecursionDesired = bits&headerBitRD != 0
	h.RecursionAvailable = bits&headerBitRA != 0
	h.Zero = bits&headerBitZ != 0
	h.AuthenticData = bits&headerBitAD != 0
	h.CheckingDisabled = bits&headerBitCD != 0
	h.RCode = RCode(bits & 0xF)
}

// Question is an entry of the question section.
type Question struct {
	Name  string
	Type  Type
	Class uint16
}

// Resource is a resource record from the answer, authority or additional
// section.
type Resource struct {
	Name  string
	Type  Type
	Class uint16
	TTL   uint32
	Data  RData
}

// Message is a decoded DNS message. It is built once by DecodeMessage and
// not modified afterwards.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []Resource
	Authorities []Resource
	Additionals []Resource
}
