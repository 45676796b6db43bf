package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/ebiview/site/event"
)

func TestStdout_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)

	e1 := event.New("https://ebi.example", event.KindRevealed, "#etapas", "")
	e2 := event.New("https://ebi.example", event.KindCounterDone, "#c1", "42")
	if err := s.Send(context.Background(), e1); err != nil {
		t.Fatal(err)
	}
	if err := s.Send(context.Background(), e2); err != nil {
		t.Fatal(err)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	var got event.Event
	if err := json.Unmarshal(lines[1], &got); err != nil {
		t.Fatal(err)
	}
	if got.Kind != event.KindCounterDone || got.Value != "42" {
		t.Errorf("second line: got %+v", got)
	}
}

type failingSink struct{ sent int }

func (f *failingSink) Send(context.Context, event.Event) error {
	f.sent++
	return errors.New("boom")
}
func (f *failingSink) Close() error { return nil }

func TestRouter_FansOutDespiteErrors(t *testing.T) {
	bad := &failingSink{}
	var got []event.Event
	good := NewCallback(func(_ context.Context, e event.Event) error {
		got = append(got, e)
		return nil
	})

	r := NewRouter(nil, bad, good)
	err := r.Send(context.Background(), event.New("u", event.KindNavActive, ".nav-link", "etapas"))
	if err == nil {
		t.Fatal("expected first sink error to be returned")
	}
	if bad.sent != 1 || len(got) != 1 {
		t.Fatalf("bad.sent=%d good=%d, want 1 and 1", bad.sent, len(got))
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCallback_NilFunc(t *testing.T) {
	if err := NewCallback(nil).Send(context.Background(), event.Event{}); err != nil {
		t.Fatal(err)
	}
}

func TestWebhook_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type: got %q", r.Header.Get("Content-Type"))
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookBackoff(time.Millisecond))
	if err := w.Send(context.Background(), event.New("u", event.KindThemeChanged, "html", "dark")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	w.Close()
	if got := calls.Load(); got != 3 {
		t.Errorf("calls: got %d, want 3", got)
	}
}

func TestWebhook_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookRetries(2), WithWebhookBackoff(time.Millisecond))
	if err := w.Send(context.Background(), event.Event{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	w.Close()
	if got := calls.Load(); got != 3 {
		t.Errorf("calls: got %d, want 3", got)
	}
}

func TestWebhook_SendDoesNotWaitForDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookBackoff(time.Second), WithWebhookDrain(20*time.Millisecond))

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := w.Send(context.Background(), event.New("u", event.KindRevealed, "e1", "")); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("Send blocked for %v", d)
	}

	start = time.Now()
	w.Close()
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("Close took %v with a dead endpoint", d)
	}
	if err := w.Send(context.Background(), event.Event{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close: got %v, want ErrClosed", err)
	}
}

func TestWebhook_QueueFullDrops(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, WithWebhookQueue(1))

	// One event in flight at most, one queued: the third cannot fit.
	var dropped int
	for i := 0; i < 3; i++ {
		if err := w.Send(context.Background(), event.Event{}); errors.Is(err, ErrQueueFull) {
			dropped++
		}
	}
	if dropped == 0 {
		t.Error("no event dropped with a full queue")
	}

	close(release)
	w.Close()
}
