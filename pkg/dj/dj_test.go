package dj_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/picatz/dohgate/pkg/dj"
	"github.com/picatz/dohgate/pkg/dnswire"
)

func TestShape(t *testing.T) {
	msg := &dnswire.Message{
		Header: dnswire.Header{
			ID:                 1,
			Response:           true,
			RecursionDesired:   true,
			RecursionAvailable: true,
			AuthenticData:      true,
			RCode:              0,
		},
		Questions: []dnswire.Question{
			{Name: "www.example.com", Type: dnswire.TypeA, Class: dnswire.ClassINET},
		},
		Answers: []dnswire.Resource{
			{Name: "www.example.com", Type: dnswire.TypeCNAME, Class: 1, TTL: 300, Data: &dnswire.CNAME{Target: "example.com"}},
			{Name: "example.com", Type: dnswire.TypeA, Class: 1, TTL: 3600, Data: &dnswire.A{Addr: netip.MustParseAddr("93.184.216.34")}},
			{Name: "example.com", Type: dnswire.TypeAAAA, Class: 1, TTL: 3600, Data: &dnswire.AAAA{Addr: netip.MustParseAddr("2606:2800:0220:0001:0248:1893:25c8:1946")}},
			{Name: "example.com", Type: 16, Class: 1, TTL: 60, Data: &dnswire.Unknown{Type: 16, Raw: []byte{2, 'h', 'i'}}},
		},
	}

	resp := dj.Shape(msg)

	if resp.Status != 0 || !resp.RD || !resp.RA || !resp.AD || resp.TC || resp.CD {
		t.Errorf("unexpected flags: %+v", resp)
	}

	if len(resp.Question) != 1 || resp.Question[0] != (dj.Question{Name: "www.example.com", Type: 1}) {
		t.Errorf("got question %+v", resp.Question)
	}

	want := []dj.Record{
		{Name: "www.example.com", Type: 5, TTL: 300, Data: "example.com"},
		{Name: "example.com", Type: 1, TTL: 3600, Data: "93.184.216.34"},
		{Name: "example.com", Type: 28, TTL: 3600, Data: "2606:2800:220:1:248:1893:25c8:1946"},
		{Name: "example.com", Type: 16, TTL: 60, Data: `\# 3 026869`},
	}

	if len(resp.Answer) != len(want) {
		t.Fatalf("got %d answers, want %d", len(resp.Answer), len(want))
	}

	for i := range want {
		if resp.Answer[i] != want[i] {
			t.Errorf("answer %d: got %+v, want %+v", i, resp.Answer[i], want[i])
		}
	}
}

func TestShapeEmptySections(t *testing.T) {
	resp := dj.Shape(&dnswire.Message{Header: dnswire.Header{RCode: 3}})

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}

	want := `{"Status":3,"TC":false,"RD":false,"RA":false,"AD":false,"CD":false,"Question":[],"Answer":[],"Authority":[],"Additional":[]}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("name") == "" {
			http.Error(w, "invalid/missing name param", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Status":0,"RD":true,"RA":true,"Question":[{"name":%q,"type":1}],"Answer":[{"name":%q,"type":1,"TTL":60,"data":"192.0.2.1"}],"Comment":%q}`,
			q.Get("name"), q.Get("name"), q.Get("resolver"))
	}))
	defer srv.Close()

	client := cleanhttp.DefaultClient()

	t.Run("ok", func(t *testing.T) {
		resp, err := dj.Query(context.Background(), client, srv.URL, &dj.Request{
			Name:     "example.com",
			Type:     "A",
			Resolver: "google",
		})
		if err != nil {
			t.Fatal(err)
		}

		if len(resp.Answer) == 0 {
			t.Fatal("got no answer for known domain")
		}

		if resp.Answer[0].Data != "192.0.2.1" {
			t.Errorf("got data %q, want %q", resp.Answer[0].Data, "192.0.2.1")
		}
	})

	t.Run("bad request", func(t *testing.T) {
		_, err := dj.Query(context.Background(), client, srv.URL, &dj.Request{})

		var statusErr *dj.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("got error %v, want *dj.StatusError", err)
		}

		if statusErr.Code != http.StatusBadRequest {
			t.Errorf("got status code %d, want %d", statusErr.Code, http.StatusBadRequest)
		}

		if statusErr.Reason != "invalid/missing name param" {
			t.Errorf("got reason %q", statusErr.Reason)
		}
	})
}
