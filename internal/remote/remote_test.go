package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Makepad-fr/qrgen/internal/model"
	"github.com/charmbracelet/log"
)

func newTestServer(t *testing.T) (*httptest.Server, *Journal) {
	t.Helper()
	j := NewJournal()
	srv := httptest.NewServer(NewRouter(j, log.New(io.Discard)))
	t.Cleanup(srv.Close)
	return srv, j
}

func TestClientSave(t *testing.T) {
	srv, j := newTestServer(t)
	c := NewClient(srv.URL+"/", time.Second)

	rec := model.Record{ID: "abc", Title: "Home", URL: "https://example.com"}
	if err := c.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	events := j.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Op != "save" || events[0].Record == nil || *events[0].Record != rec {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestClientRemove(t *testing.T) {
	srv, j := newTestServer(t)
	c := NewClient(srv.URL, time.Second)

	if err := c.Remove(context.Background(), 2, "abc"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ev := j.Events()[0]
	if ev.Op != "remove" || ev.Index == nil || *ev.Index != 2 || ev.ID != "abc" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Save(context.Background(), model.Record{URL: "https://x.io"})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("got %v, want StatusError 500", err)
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if err := NewClient(url, time.Second).Remove(context.Background(), 0, ""); err == nil {
		t.Fatal("expected error from closed server")
	}
}

func TestRouterRejectsBadBodies(t *testing.T) {
	srv, j := newTestServer(t)
	cases := []struct {
		path string
		body string
	}{
		{SavePath, "{"},
		{SavePath, `{"title":"no url"}`},
		{RemovePath, `{"index":-1}`},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+tc.path, "application/json", strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s %s: status %d, want 400", tc.path, tc.body, resp.StatusCode)
		}
	}
	if n := len(j.Events()); n != 0 {
		t.Errorf("journal has %d events, want 0", n)
	}
}

func TestRouterEventsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, time.Second)
	_ = c.Save(context.Background(), model.Record{ID: "1", URL: "https://a.io"})

	resp, err := http.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].ID != "1" {
		t.Errorf("events = %+v", events)
	}

	health, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(health.Body)
	health.Body.Close()
	if strings.TrimSpace(string(body)) != "OK" {
		t.Errorf("health body = %q", body)
	}
}

func TestJournalIsBounded(t *testing.T) {
	j := NewJournal()
	for i := 0; i < maxEvents+5; i++ {
		j.append(Event{Op: "save", ID: "x"})
	}
	if n := len(j.Events()); n != maxEvents {
		t.Fatalf("len = %d, want %d", n, maxEvents)
	}
}

func TestNop(t *testing.T) {
	var m Mirror = Nop{}
	if m.Save(context.Background(), model.Record{}) != nil || m.Remove(context.Background(), 0, "") != nil {
		t.Fatal("Nop must never fail")
	}
}
