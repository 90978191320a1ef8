package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestReaderDispatchesNamedEvents(t *testing.T) {
	raw := ": keepalive\n" +
		"event: gameState\n" +
		"data: {\"fen\":\"a\"}\n" +
		"\n" +
		"event: other\r\n" +
		"id: 7\r\n" +
		"data: line one\r\n" +
		"data:line two\r\n" +
		"retry: 1000\r\n" +
		"\r\n" +
		"data: anonymous\n\n"
	r := NewReader(strings.NewReader(raw))

	ev, err := r.Next()
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	if ev.Name != "gameState" || ev.Data != `{"fen":"a"}` {
		t.Fatalf("unexpected first event: %+v", ev)
	}

	ev, err = r.Next()
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if ev.Name != "other" || ev.Data != "line one\nline two" || ev.ID != "7" {
		t.Fatalf("unexpected second event: %+v", ev)
	}

	ev, err = r.Next()
	if err != nil {
		t.Fatalf("third event: %v", err)
	}
	if ev.Name != "message" || ev.Data != "anonymous" {
		t.Fatalf("unnamed event should default to message: %+v", ev)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReaderSkipsEventsWithoutData(t *testing.T) {
	r := NewReader(strings.NewReader("event: gameState\n\nevent: gameState\ndata: x\n\n"))
	ev, err := r.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ev.Data != "x" || ev.Name != "gameState" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestReaderTruncatedEvent(t *testing.T) {
	r := NewReader(strings.NewReader("event: gameState\ndata: {\"fen\""))
	if _, err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestReaderKeepsLastIDAcrossSmallReads(t *testing.T) {
	raw := "id: 3\ndata: a\n\ndata: b\r\n\r\n"
	r := NewReader(iotest.OneByteReader(strings.NewReader(raw)))
	for _, want := range []string{"a", "b"} {
		ev, err := r.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if ev.Data != want || ev.ID != "3" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReaderTrailingCommentIsCleanEOF(t *testing.T) {
	r := NewReader(strings.NewReader("data: x\n\n: ping\n"))
	if ev, err := r.Next(); err != nil || ev.Data != "x" {
		t.Fatalf("next: %+v %v", ev, err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("an unterminated comment loses nothing, got %v", err)
	}
}
