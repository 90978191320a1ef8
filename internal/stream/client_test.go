package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/gamestate"
)

func sseServer(t *testing.T, write func(w http.ResponseWriter, f http.Flusher, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EventsPath {
			http.NotFound(w, r)
			return
		}
		f, ok := w.(http.Flusher)
		if !ok {
			t.Errorf("response writer cannot flush")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		f.Flush()
		write(w, f, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func waitDone(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("subscription did not finish")
	}
}

func TestSubscribeDeliversSnapshotsInOrder(t *testing.T) {
	headerCh := make(chan string, 1)
	srv := sseServer(t, func(w http.ResponseWriter, f http.Flusher, r *http.Request) {
		headerCh <- r.Header.Get("X-User-Id")
		fmt.Fprint(w, "event: gameState\ndata: {\"fen\":\"f1\",\"lastMove\":\"e2e4\",\"type\":\"gameState\"}\n\n")
		fmt.Fprint(w, "event: ping\ndata: {}\n\n")
		fmt.Fprint(w, "event: gameState\ndata: not-json\n\n")
		fmt.Fprint(w, "event: gameState\ndata: {\"fen\":\"f2\",\"lastMove\":\"e7e5\",\"type\":\"gameState\"}\n\n")
		f.Flush()
	})

	core, logs := observer.New(zapcore.DebugLevel)
	c := NewClient(srv.URL+"/",
		WithLogger(zap.New(core)),
		WithHeaderProvider(func() map[string]string { return map[string]string{"X-User-Id": "u-1", "": "skip"} }),
	)

	var mu sync.Mutex
	var seen []string
	var states []State
	c.OnStateChange(func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	latest := NewLatest()
	latest.OnChange(func(s *gamestate.Snapshot) {
		mu.Lock()
		seen = append(seen, s.LastMove)
		mu.Unlock()
	})

	sub := c.Subscribe(context.Background(), latest)
	waitDone(t, sub)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "e2e4" || seen[1] != "e7e5" {
		t.Fatalf("unexpected deliveries: %v", seen)
	}
	if cur := latest.Load(); cur == nil || cur.Position != "f2" || cur.Seq != 2 {
		t.Fatalf("latest = %+v", cur)
	}
	if gotHeader := <-headerCh; gotHeader != "u-1" {
		t.Fatalf("header provider not applied: %q", gotHeader)
	}
	if logs.FilterMessage("stream_decode_failed").Len() != 1 {
		t.Fatalf("decode failure should be logged once")
	}
	if len(states) < 3 || states[0] != StateConnecting || states[1] != StateOpen {
		t.Fatalf("unexpected state sequence: %v", states)
	}
	if last := states[len(states)-1]; last != StateClosed && last != StateFailed {
		t.Fatalf("stream should end closed or failed, got %v", last)
	}
}

func TestSubscribeUnexpectedStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	sub := c.Subscribe(context.Background(), nil)
	waitDone(t, sub)
	if sub.Err() == nil {
		t.Fatalf("expected transport error")
	}
	if sub.Latest().Load() != nil {
		t.Fatalf("no snapshot should be stored")
	}
}

func TestCloseUnblocksIdleStream(t *testing.T) {
	release := make(chan struct{})
	srv := sseServer(t, func(w http.ResponseWriter, f http.Flusher, r *http.Request) {
		fmt.Fprint(w, "event: gameState\ndata: {\"fen\":\"f1\"}\n\n")
		f.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	latest := NewLatest()
	got := make(chan struct{}, 1)
	latest.OnChange(func(*gamestate.Snapshot) { got <- struct{}{} })

	c := NewClient(srv.URL)
	sub := c.Subscribe(context.Background(), latest)
	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatalf("snapshot not delivered")
	}

	closed := make(chan struct{})
	go func() {
		sub.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("Close did not return")
	}
	if sub.Err() != nil {
		t.Fatalf("close should not record a transport error: %v", sub.Err())
	}
}

func TestLatestCallbacks(t *testing.T) {
	l := NewLatest()
	var calls []string
	id := l.OnChange(func(s *gamestate.Snapshot) { calls = append(calls, "a:"+s.Position) })
	l.OnChange(func(s *gamestate.Snapshot) { calls = append(calls, "b:"+s.Position) })

	l.Store(&gamestate.Snapshot{Position: "x"})
	l.RemoveCallback(id)
	l.Store(&gamestate.Snapshot{Position: "y"})
	l.Store(nil)

	want := []string{"a:x", "b:x", "b:y"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	if l.Load().Position != "y" || l.Load().Seq != 2 {
		t.Fatalf("latest = %+v", l.Load())
	}
}
