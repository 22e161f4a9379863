package dj

import "github.com/picatz/dohgate/pkg/dnswire"

// Shape maps a decoded message onto the JSON API format. It never fails:
// record types without a dedicated representation use the RFC 3597 generic
// form for their data.
func Shape(m *dnswire.Message) *Response {
	resp := &Response{
		Status:     int(m.Header.RCode),
		TC:         m.Header.Truncated,
		RD:         m.Header.RecursionDesired,
		RA:         m.Header.RecursionAvailable,
		AD:         m.Header.AuthenticData,
		CD:         m.Header.CheckingDisabled,
		Question:   make([]Question, 0, len(m.Questions)),
		Answer:     shapeRecords(m.Answers),
		Authority:  shapeRecords(m.Authorities),
		Additional: shapeRecords(m.Additionals),
	}

	for _, q := range m.Questions {
		resp.Question = append(resp.Question, Question{
			Name: q.Name,
			Type: int(q.Type),
		})
	}

	return resp
}

func shapeRecords(rs []dnswire.Resource) []Record {
	out := make([]Record, 0, len(rs))
	for _, rr := range rs {
		var data string
		if rr.Data != nil {
			data = rr.Data.String()
		}
		out = append(out, Record{
			Name: rr.Name,
			Type: int(rr.Type),
			TTL:  int(rr.TTL),
			Data: data,
		})
	}
	return out
}
